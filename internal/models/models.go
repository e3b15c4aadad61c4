package models

// Chunk is one retrievable unit of an uploaded document. Chunks are created at
// ingestion time, are immutable, and live only as long as the document session.
type Chunk struct {
	Index  int
	Text   string
	Vector []float32
}

// ChatTurn is one completed question/answer exchange. Turns are append-only and
// ordered by creation; the timestamp is an ISO-8601 string.
type ChatTurn struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}
