package domain

// Level names used by CompressionReport.BestLevel and SummaryLevels.
const (
	LevelMinified     = "minified"
	LevelSkeleton     = "skeleton"
	LevelArchitecture = "architecture"
	LevelCompressed   = "compressed"
)

// CompressionReport is the full output of one pipeline run.
type CompressionReport struct {
	Filename            string             `json:"filename"`
	Language            string             `json:"language"`
	FileSize            int                `json:"fileSize"`
	OriginalLines       int                `json:"originalLines"`
	OriginalTokens      int                `json:"originalTokens"`
	MinifiedTokens      int                `json:"minifiedTokens"`
	Huffman             HuffmanResult      `json:"huffman"`
	Minification        MinificationReport `json:"minification"`
	Chunks              []ChunkReport      `json:"chunks"`
	TotalChunks         int                `json:"totalChunks"`
	SummaryLevels       SummaryLevels      `json:"summaryLevels"`
	HashTable           HashTableReport    `json:"hashTable"`
	BestLevel           string             `json:"bestLevel"`
	BestTokens          int                `json:"bestTokens"`
	OverallReductionPct float64            `json:"overallReductionPct"`
	DecodePreamble      string             `json:"decodePreamble"`

	// HashEntries keeps the decode table in insertion order for renderers.
	HashEntries []HashEntry `json:"-"`
}

type MinificationReport struct {
	Code              string  `json:"code"`
	CommentsRemoved   int     `json:"commentsRemoved"`
	BlankLinesRemoved int     `json:"blankLinesRemoved"`
	ReductionPct      float64 `json:"reductionPct"`
	Tokens            int     `json:"tokens"`
}

type ChunkReport struct {
	Kind      ChunkKind `json:"kind"`
	Name      string    `json:"name"`
	StartLine int       `json:"startLine"`
	EndLine   int       `json:"endLine"`
	Tokens    int       `json:"tokens"`
	Signature *string   `json:"signature"`
}

type SummaryLevels struct {
	Minified     LevelView `json:"minified"`
	Skeleton     LevelView `json:"skeleton"`
	Architecture LevelView `json:"architecture"`
	Compressed   LevelView `json:"compressed"`
}

type LevelView struct {
	Content string `json:"content"`
	Tokens  int    `json:"tokens"`
}

type HashTableReport struct {
	DecodeMap    map[string]string `json:"decodeMap"`
	EntriesCount int               `json:"entriesCount"`
}

// NewChunkReport converts a chunk to its report row.
func NewChunkReport(c CodeChunk) ChunkReport {
	r := ChunkReport{
		Kind:      c.Kind,
		Name:      c.Name,
		StartLine: c.StartLine,
		EndLine:   c.EndLine,
		Tokens:    c.TokenEstimate,
	}
	if c.Signature != "" {
		sig := c.Signature
		r.Signature = &sig
	}
	return r
}

// View returns the content of the named level.
func (s SummaryLevels) View(level string) (LevelView, bool) {
	switch level {
	case LevelMinified:
		return s.Minified, true
	case LevelSkeleton:
		return s.Skeleton, true
	case LevelArchitecture:
		return s.Architecture, true
	case LevelCompressed:
		return s.Compressed, true
	}
	return LevelView{}, false
}
