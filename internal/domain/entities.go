package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChunkKind classifies a structural region of source text.
type ChunkKind int

const (
	KindImport ChunkKind = iota
	KindClass
	KindInterface
	KindTypeAlias
	KindFunction
	KindMethod
	KindConstant
	KindBlock
)

// TopLevelName names chunks that group loose top-level lines.
const TopLevelName = "<top-level>"

var chunkKindNames = [...]string{
	KindImport:    "import",
	KindClass:     "class",
	KindInterface: "interface",
	KindTypeAlias: "type_alias",
	KindFunction:  "function",
	KindMethod:    "method",
	KindConstant:  "constant",
	KindBlock:     "block",
}

// AllChunkKinds returns every chunk kind in declaration order.
func AllChunkKinds() []ChunkKind {
	return []ChunkKind{KindImport, KindClass, KindInterface, KindTypeAlias, KindFunction, KindMethod, KindConstant, KindBlock}
}

func (k ChunkKind) String() string {
	if k < 0 || int(k) >= len(chunkKindNames) {
		return fmt.Sprintf("ChunkKind(%d)", int(k))
	}
	return chunkKindNames[k]
}

// IsContainer reports whether chunks of this kind may own METHOD chunks.
func (k ChunkKind) IsContainer() bool {
	switch k {
	case KindClass, KindInterface, KindTypeAlias:
		return true
	case KindImport, KindFunction, KindMethod, KindConstant, KindBlock:
		return false
	default:
		panic(fmt.Sprintf("domain: unhandled chunk kind %d", int(k)))
	}
}

func (k ChunkKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ChunkKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseChunkKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseChunkKind converts the string form of a kind back to its value.
func ParseChunkKind(s string) (ChunkKind, error) {
	for i, name := range chunkKindNames {
		if name == s {
			return ChunkKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown chunk kind %q", s)
}

// CodeChunk is a contiguous line range of the original text.
// Lines are 1-indexed and inclusive. Signature is empty for imports and blocks.
type CodeChunk struct {
	Kind          ChunkKind
	Name          string
	StartLine     int
	EndLine       int
	Content       string
	Signature     string
	TokenEstimate int
}

// Contains reports whether other lies within the line span of c.
func (c CodeChunk) Contains(other CodeChunk) bool {
	return other.StartLine >= c.StartLine && other.EndLine <= c.EndLine
}

type MinifyResult struct {
	Minified          string
	CommentsRemoved   int
	BlankLinesRemoved int
	ReductionPct      float64
}

type HuffmanResult struct {
	CompressedSizeBits int     `json:"compressedBits"`
	CompressionRatio   float64 `json:"compressionRatio"`
	SpaceSavedPct      float64 `json:"spaceSavedPct"`
}

// HashEntry records one repeated pattern replaced by a hash reference.
type HashEntry struct {
	Key         string `json:"key"`
	Pattern     string `json:"pattern"`
	Occurrences int    `json:"occurrences"`
}

// SummaryResult holds the three derived views of one file.
type SummaryResult struct {
	Skeleton           string
	SkeletonTokens     int
	Architecture       string
	ArchitectureTokens int
	CompressedCode     string
	CompressedTokens   int
	HashEntries        []HashEntry
	HashDecodeMap      map[string]string
	HashEntriesCount   int
	OriginalTokens     int
}

// LosslessEncodedFile is one file of a lossless bundle.
type LosslessEncodedFile struct {
	Filename         string            `json:"filename"`
	Language         string            `json:"language"`
	OriginalSize     int               `json:"original_size"`
	EncodedSize      int               `json:"encoded_size"`
	PatternsCount    int               `json:"patterns_count"`
	CompressionRatio float64           `json:"compression_ratio"`
	SpaceSavedPct    float64           `json:"space_saved_pct"`
	KeyWidth         int               `json:"key_width"`
	DecodeTable      map[string]string `json:"decode_table"`
	Body             string            `json:"body"`
}

// LosslessBundle groups encoded files under a format marker.
type LosslessBundle struct {
	Lossless      bool                  `json:"lossless"`
	FormatVersion int                   `json:"format_version"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Files         []LosslessEncodedFile `json:"files"`
}

// SourceFile is a named text input for multi-file operations.
type SourceFile struct {
	Name     string
	Language string
	Text     string
}

// FileAnalysis is the quick per-upload summary.
type FileAnalysis struct {
	FileName      string `json:"fileName"`
	FileSize      int    `json:"fileSize"`
	Language      string `json:"language"`
	TokenEstimate int    `json:"tokenEstimate"`
}
