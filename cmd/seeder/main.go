package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	brain "github.com/systemccg/flourisha-00-ai-brain-sub006"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/queue"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

type seedNote struct {
	title string
	text  string
}

var seedNotes = []seedNote{
	{
		title: "Garden planning",
		text: "The raised beds on the south side get full sun from March onward, so tomatoes and peppers go there. The shaded strip along the fence stays cool; lettuce and spinach held up well there last summer.\n\n" +
			"Order seeds by mid-February. The heirloom supplier sold out of the striped tomatoes by March last year. Compost needs turning before the first planting, and the drip lines should be flushed after sitting all winter.",
	},
	{
		title: "Reading notes: The Innovator's Dilemma",
		text: "Christensen's core claim is that good management causes incumbent failure. Listening to the best customers and investing in the highest-margin products systematically steers companies away from disruptive technologies.\n\n" +
			"Disruption starts in markets the incumbent is happy to abandon. The performance trajectory of the cheap product eventually crosses what the mainstream needs. By then the entrant owns the cost structure for the low end.",
	},
	{
		title: "Kitchen renovation quotes",
		text: "Three quotes so far. The first contractor bids high but includes electrical work and permits. The second is cheaper and faster, but subcontracts the plumbing and would not commit to a finish date.\n\n" +
			"The cabinet lead time is eight weeks either way, so the order has to go in before demolition starts. Keep the old pantry shelving; it fits the garage wall.",
	},
	{
		title: "Sourdough troubleshooting",
		text: "Dense loaves trace back to underproofing, not the starter. The kitchen runs cold in winter; bulk fermentation needs five hours, not the three the recipe says. The oven spring improved once the dutch oven went in during preheat.\n\n" +
			"Feeding the starter with rye makes it peak faster. A tablespoon of the old starter is enough; discarding more feels wasteful but keeps the acidity down.",
	},
	{
		title: "Trip planning: coastal hike",
		text: "The northern trailhead closes after storms, so check the ranger page the week before. Campsites book out ninety days ahead; the two walk-in sites at the cove are first come.\n\n" +
			"Water sources are reliable until late July. The middle section has no shade for six miles, so start that stretch before eight. Cell coverage dies past the second ridge.",
	},
	{
		title: "Meeting notes: library volunteer program",
		text: "The branch needs Saturday coverage more than weekday evenings. Training is two sessions, then shadowing. The children's reading hour has a waitlist of volunteers while the catalog cleanup has none.\n\n" +
			"The coordinator wants a shared calendar instead of the email chain. Next meeting is the first Tuesday of the month.",
	},
	{
		title: "Home network layout",
		text: "The access point in the hallway covers the bedrooms but not the garage office. A wired backhaul through the crawlspace would fix it; the powerline adapters dropped to a crawl whenever the dryer ran.\n\n" +
			"The switch in the closet is out of ports. The camera, the printer, and the NAS could share a small secondary switch. Label the cables this time.",
	},
	{
		title: "Reading notes: Thinking in Systems",
		text: "Meadows keeps returning to stocks and flows. A stock changes only through its flows, and the delays between them produce the oscillations people blame on bad actors. The bathtub is the whole argument in miniature.\n\n" +
			"Leverage points rank from parameters up to paradigms. Most interventions tweak parameters because they are visible, while the structure that generates behavior goes untouched.",
	},
	{
		title: "Car maintenance log",
		text: "Front brakes done at 82k, pads and rotors. The shop flagged the passenger CV boot as cracked but not leaking; recheck at the next oil change. Tires rotated, wear even.\n\n" +
			"The rattle over speed bumps turned out to be the heat shield, not the exhaust mount. One clamp fixed it.",
	},
	{
		title: "Piano practice plan",
		text: "Scales first, ten minutes, hands together at sixty beats per minute before trying anything faster. The left hand falls apart above eighty on the arpeggios.\n\n" +
			"The second movement needs slow work on the ornaments; playing them in time matters more than playing them fast. Record Thursday sessions to hear the rushing.",
	},
}

var (
	seedFileName = flag.String("src", "", "file of seed notes, one per line")
	dbPath       = flag.String("db", "./brain_db", "path to the database directory")
	tenant       = flag.String("tenant", "tenant-seed", "tenant to seed")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// notesFromFile returns an iterator over notes in a file, one per line.
func notesFromFile(filename string) (iter.Seq[seedNote], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(seedNote) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if !yield(seedNote{text: line}) {
				return
			}
		}
	}, nil
}

// notesFromSlice returns an iterator over the built-in seed notes.
func notesFromSlice(notes []seedNote) iter.Seq[seedNote] {
	return func(yield func(seedNote) bool) {
		for _, note := range notes {
			if !yield(note) {
				return
			}
		}
	}
}

// submitAll enqueues every note and returns how many went in.
func submitAll(ctx context.Context, br *brain.Brain, source iter.Seq[seedNote]) (int, error) {
	count := 0
	for note := range source {
		_, err := br.Submit(ctx, &core.ContentItem{
			TenantId:   *tenant,
			SourceType: core.SourceTypeNote,
			SourceId:   fmt.Sprintf("seed-%03d", count+1),
			Title:      note.title,
			Text:       note.text,
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// waitForDrain polls until no entry is queued or being processed.
func waitForDrain(ctx context.Context, repo storage.QueueRepository) error {
	for {
		queued, err := repo.ListEntries(ctx, "", core.StatusQueued, 1)
		if err != nil {
			return err
		}
		processing, err := repo.ListEntries(ctx, "", core.StatusProcessing, 1)
		if err != nil {
			return err
		}
		if len(queued) == 0 && len(processing) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func main() {
	br, err := brain.New(*dbPath)
	if err != nil {
		panic(err)
	}
	defer br.Close()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[seedNote]
	if *seedFileName != "" {
		source, err = notesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = notesFromSlice(seedNotes)
	}

	count, err := submitAll(ctx, br, source)
	if err != nil {
		panic(err)
	}
	slog.Info("notes submitted", "count", count, "tenant", *tenant)

	pipeline, err := br.NewPipeline()
	if err != nil {
		panic(err)
	}
	manager, err := br.NewManager(pipeline,
		queue.WithWorkers(4),
		queue.WithPollInterval(100*time.Millisecond),
	)
	if err != nil {
		panic(err)
	}
	defer manager.Release()

	if err := manager.Start(ctx); err != nil {
		panic(err)
	}
	if err := waitForDrain(ctx, br.QueueRepository()); err != nil {
		panic(err)
	}

	failed, err := br.QueueRepository().ListEntries(ctx, *tenant, core.StatusFailed, count)
	if err != nil {
		panic(err)
	}
	for _, entry := range failed {
		slog.Warn("entry failed", "entry", uint64(entry.Id),
			"document", entry.Item.DocumentID(), "cause", entry.LastError)
	}

	slog.Info("seeding complete", "notes", count, "failed", len(failed))
}
