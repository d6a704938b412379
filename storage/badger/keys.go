package badger

import (
	"encoding/binary"
	"time"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
)

// Key prefixes for different data types
const (
	versionRowPrefix    = "docver"
	versionPtrPrefix    = "doccur"
	chunkRecordPrefix   = "chkrec"
	queueEntryPrefix    = "quent"
	queueReadyPrefix    = "qurdy"
	queueEntryIDSeq     = "quentseq"
	archiveRecordPrefix = "arcrec"
	stageProgressPrefix = "stgprg"
	episodeRecordPrefix = "gphepi"
	entityRecordPrefix  = "gphent"
	relationFwdPrefix   = "gphrel"
	relationRevPrefix   = "gphrev"
)

// appendString appends a string component with a 2-byte BigEndian length
// prefix. Length-prefixing keeps keys unambiguous even when tenant or
// document ids contain separator characters.
func appendString(buf []byte, s string) []byte {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(s)))
	buf = append(buf, l[:]...)
	return append(buf, s...)
}

// appendUint64 appends a value in BigEndian order so lexicographic sort
// works correctly.
func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// makeVersionKey generates a key for a document version row.
// Format: prefix:tenant:document:version
func makeVersionKey(tenantID, documentID string, version int) []byte {
	buf := makeVersionPrefix(tenantID, documentID)
	return appendUint64(buf, uint64(version))
}

// makeVersionPrefix generates the scan prefix for a document's version rows.
func makeVersionPrefix(tenantID, documentID string) []byte {
	buf := []byte(versionRowPrefix + ":")
	buf = appendString(buf, tenantID)
	return appendString(buf, documentID)
}

// makeCurrentPtrKey generates the key of a document's current pointer.
// The value is the promoted version number.
func makeCurrentPtrKey(tenantID, documentID string) []byte {
	buf := []byte(versionPtrPrefix + ":")
	buf = appendString(buf, tenantID)
	return appendString(buf, documentID)
}

// makeCurrentPtrPrefix generates the scan prefix over a tenant's current
// pointers, used to enumerate the tenant's documents.
func makeCurrentPtrPrefix(tenantID string) []byte {
	buf := []byte(versionPtrPrefix + ":")
	return appendString(buf, tenantID)
}

// makeChunkKey generates a key for a chunk.
// Format: prefix:tenant:document:version:index
func makeChunkKey(tenantID, documentID string, version, index int) []byte {
	buf := makeChunkVersionPrefix(tenantID, documentID, version)
	return appendUint64(buf, uint64(index))
}

// makeChunkVersionPrefix generates the scan prefix for one version's chunks.
func makeChunkVersionPrefix(tenantID, documentID string, version int) []byte {
	buf := []byte(chunkRecordPrefix + ":")
	buf = appendString(buf, tenantID)
	buf = appendString(buf, documentID)
	return appendUint64(buf, uint64(version))
}

// makeChunkTenantPrefix generates the scan prefix over all of a tenant's chunks.
func makeChunkTenantPrefix(tenantID string) []byte {
	buf := []byte(chunkRecordPrefix + ":")
	return appendString(buf, tenantID)
}

// makeQueueEntryKey generates a key for a queue entry by ID.
func makeQueueEntryKey(id core.ID) []byte {
	buf := []byte(queueEntryPrefix + ":")
	return appendUint64(buf, uint64(id))
}

// makeQueueReadyKey generates a key in the dequeue-order index.
// Format: prefix:invertedPriority:createdAt:id, so an ascending scan visits
// entries by priority descending, then oldest first.
func makeQueueReadyKey(priority int, createdAt time.Time, id core.ID) []byte {
	buf := []byte(queueReadyPrefix + ":")
	buf = append(buf, byte(10-priority))
	buf = appendUint64(buf, uint64(createdAt.UnixMicro()))
	return appendUint64(buf, uint64(id))
}

// makeArchiveKey generates a key for an archived version.
// Format: prefix:tenant:document:version
func makeArchiveKey(tenantID, documentID string, version int) []byte {
	buf := makeArchiveDocPrefix(tenantID, documentID)
	return appendUint64(buf, uint64(version))
}

// makeArchiveDocPrefix generates the scan prefix for a document's archive.
func makeArchiveDocPrefix(tenantID, documentID string) []byte {
	buf := []byte(archiveRecordPrefix + ":")
	buf = appendString(buf, tenantID)
	return appendString(buf, documentID)
}

// makeProgressKey generates a key for a queue entry's stage record.
func makeProgressKey(entryID core.ID) []byte {
	buf := []byte(stageProgressPrefix + ":")
	return appendUint64(buf, uint64(entryID))
}

// makeEpisodeKey generates a key for an episode.
// Format: prefix:tenant:document:version
func makeEpisodeKey(tenantID, documentID string, version int) []byte {
	buf := makeEpisodeDocPrefix(tenantID, documentID)
	return appendUint64(buf, uint64(version))
}

// makeEpisodeDocPrefix generates the scan prefix for a document's episodes.
func makeEpisodeDocPrefix(tenantID, documentID string) []byte {
	buf := []byte(episodeRecordPrefix + ":")
	buf = appendString(buf, tenantID)
	return appendString(buf, documentID)
}

// makeEpisodeTenantPrefix generates the scan prefix over a tenant's episodes.
func makeEpisodeTenantPrefix(tenantID string) []byte {
	buf := []byte(episodeRecordPrefix + ":")
	return appendString(buf, tenantID)
}

// makeEntityKey generates a key for an entity by ID.
func makeEntityKey(tenantID string, id core.ID) []byte {
	buf := makeEntityPrefix(tenantID)
	return appendUint64(buf, uint64(id))
}

// makeEntityPrefix generates the scan prefix over a tenant's entities.
func makeEntityPrefix(tenantID string) []byte {
	buf := []byte(entityRecordPrefix + ":")
	return appendString(buf, tenantID)
}

// makeRelationKey generates a key for a relation edge in source order.
// Format: prefix:tenant:from:to:verb
func makeRelationKey(tenantID string, from, to, verb core.ID) []byte {
	buf := makeRelationFromPrefix(tenantID, from)
	buf = appendUint64(buf, uint64(to))
	return appendUint64(buf, uint64(verb))
}

// makeRelationFromPrefix generates the scan prefix for edges leaving an entity.
func makeRelationFromPrefix(tenantID string, from core.ID) []byte {
	buf := []byte(relationFwdPrefix + ":")
	buf = appendString(buf, tenantID)
	return appendUint64(buf, uint64(from))
}

// makeRelationReverseKey generates the mirror key for a relation edge in
// target order, so incoming edges can be scanned without a full sweep.
func makeRelationReverseKey(tenantID string, to, from, verb core.ID) []byte {
	buf := makeRelationToPrefix(tenantID, to)
	buf = appendUint64(buf, uint64(from))
	return appendUint64(buf, uint64(verb))
}

// makeRelationToPrefix generates the scan prefix for edges entering an entity.
func makeRelationToPrefix(tenantID string, to core.ID) []byte {
	buf := []byte(relationRevPrefix + ":")
	buf = appendString(buf, tenantID)
	return appendUint64(buf, uint64(to))
}

// makeRelationTenantPrefix generates the scan prefix over every forward
// relation edge of a tenant.
func makeRelationTenantPrefix(tenantID string) []byte {
	buf := []byte(relationFwdPrefix + ":")
	return appendString(buf, tenantID)
}
