package openai

import (
	"fmt"
	"strings"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string",
            "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"
          },
          "type": {
            "type": "string"
          },
          "salience": {
            "type": "integer",
            "minimum": 1,
            "maximum": 10
          }
        },
        "required": ["name", "type", "salience"],
        "additionalProperties": false
      }
    },
    "relations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "from": {
            "type": "string"
          },
          "to": {
            "type": "string"
          },
          "verb": {
            "type": "string",
            "pattern": "^[a-z]+( [a-z]+)*$"
          }
        },
        "required": ["from", "to", "verb"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities", "relations"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract the named entities from the given text and the relations between them, and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity names must be lowercase, 1-3 words, singular form only.
- Type field must match exactly one of the listed values: %s.
- Salience is an integer from 1 (barely mentioned) to 10 (what the text is about). Rate based on how central the entity is to the text.
- Include only entities that are explicitly mentioned or clearly implied by the text. Do not hallucinate.
- Weight the subject of a sentence higher.
- A relation connects two entities from the entities list; "from" and "to" must repeat entity names exactly.
- The verb is a short lowercase predicate such as "works at", "located in", "part of".
- Only state relations the text asserts directly. Do not infer chains.
- If nothing can be identified, return "entities": [] and "relations": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example (formal):
Input: "Alice Nakamura leads Project Alpha at Vantage Labs."
Output:
{
  "entities": [
    {"name":"alice nakamura","type":"person","salience":9},
    {"name":"project alpha","type":"project","salience":8},
    {"name":"vantage labs","type":"organization","salience":7}
  ],
  "relations": [
    {"from":"alice nakamura","to":"project alpha","verb":"leads"},
    {"from":"alice nakamura","to":"vantage labs","verb":"works at"}
  ]
}

---  // informal / note-style examples

Example (missing capitalization, no punctuation):
Input: "the eiffel tower is in paris"
Output:
{
  "entities": [
    {"name":"eiffel tower","type":"building","salience":9},
    {"name":"paris","type":"place","salience":8}
  ],
  "relations": [
    {"from":"eiffel tower","to":"paris","verb":"located in"}
  ]
}

Example (meeting note, shorthand):
Input: "sync w/ bob re migration tool friday"
Output:
{
  "entities": [
    {"name":"bob","type":"person","salience":8},
    {"name":"migration tool","type":"software","salience":8}
  ],
  "relations": []
}

Example (entities with no stated relation):
Input: "i love my dog and my cat"
Output:
{
  "entities": [
    {"name":"dog","type":"animal","salience":8},
    {"name":"cat","type":"animal","salience":7}
  ],
  "relations": []
}`

const boundaryResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "boundaries": {
      "type": "array",
      "items": {
        "type": "integer",
        "minimum": 1
      }
    }
  },
  "required": ["boundaries"],
  "additionalProperties": false
}`

const boundaryPromptTemplate = `You are given a document as a numbered list of fragments, one per line, in reading order.
Decide where the document shifts to a new topic and return the fragment numbers that START a new section, as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- A boundary is the number of a fragment that begins a new topic or section.
- Fragment 0 always begins the document and must never be listed.
- List numbers in ascending order, each at most once.
- Prefer fewer, clearly-motivated boundaries over many weak ones.
- If the whole document covers one topic, return "boundaries": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input:
0: We kicked off the migration project on Monday.
1: The first milestone is moving the billing tables.
2: Dinner plans: try the new ramen place on 5th.
3: They close at nine so we should go early.
4: Back on migration, the cutover is scheduled for March.
Output:
{
  "boundaries": [2, 4]
}`

// buildExtractionPrompt creates the system prompt with entity types embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}

// buildBoundaryPrompt creates the system prompt for boundary detection.
func buildBoundaryPrompt() string {
	return fmt.Sprintf(boundaryPromptTemplate, boundaryResponseSchema)
}
