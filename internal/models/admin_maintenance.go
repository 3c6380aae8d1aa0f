package models

import "time"

// ----- SUMMARY -----

// IndexSummary resume el snapshot cargado en memoria.
type IndexSummary struct {
	Items         int            `json:"items"`
	Entries       int            `json:"entries"`
	EmptyEntries  int            `json:"emptyEntries"`
	K             int            `json:"k"`
	Kind          string         `json:"kind"` // topk|dense
	FormatVersion uint32         `json:"formatVersion"`
	CreatedAt     time.Time      `json:"createdAt"`
	StorePath     string         `json:"storePath"`
	LastRebuild   *RebuildResult `json:"lastRebuild,omitempty"`
}

// ----- REBUILD -----

// RebuildRequest body de /admin/index/rebuild. Ceros = valores de la config.
type RebuildRequest struct {
	K           int  `json:"k" validate:"min=0,max=1000"`
	BatchSize   int  `json:"batchSize" validate:"min=0,max=100000"`
	Parallelism int  `json:"parallelism" validate:"min=0,max=64"`
	MaxFeatures int  `json:"maxFeatures" validate:"min=0"`
	Dense       bool `json:"dense"`
}

// RebuildResult resultado de un rebuild offline.
type RebuildResult struct {
	Items          int       `json:"items"`
	Vocabulary     int       `json:"vocabulary"`
	Batches        int       `json:"batches"`
	K              int       `json:"k"`
	Kind           string    `json:"kind"`
	StorePath      string    `json:"storePath"`
	ElapsedMS      int64     `json:"elapsedMs"`
	FinishedAt     time.Time `json:"finishedAt"`
	ReloadRequired bool      `json:"reloadRequired"`
}

// RebuildProgress se emite por cada batch terminado.
type RebuildProgress struct {
	Batch   int `json:"batch"`
	Batches int `json:"batches"`
	Rows    int `json:"rows"`
}
