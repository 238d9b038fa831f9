package dto

import "time"

type RemoteStatus struct {
	LastSync        time.Time `json:"lastSync,omitempty"`
	LatestTimeEntry time.Time `json:"latestTimeEntry,omitempty"`
	LatestReport    time.Time `json:"latestReport,omitempty"`
	SyncNeeded      bool      `json:"syncNeeded"`
}

type StatusOutput struct {
	Owner      string        `json:"owner"`
	LastSync   time.Time     `json:"lastSync,omitempty"`
	SyncNeeded bool          `json:"syncNeeded"`
	LastError  string        `json:"lastError,omitempty"`
	Remote     *RemoteStatus `json:"remote,omitempty"`
}

type SyncOutput struct {
	Status          StatusOutput `json:"status"`
	LedgerCells     int          `json:"ledgerCells"`
	ListsReplaced   []string     `json:"listsReplaced"`
	ReportsSynced   int          `json:"reportsSynced"`
	RemoteTimestamp time.Time    `json:"remoteTimestamp,omitempty"`
}

type ExportInput struct {
	Format string
}

type ExportOutput struct {
	Format  string `json:"format"`
	Payload []byte `json:"payload"`
}

type ImportInput struct {
	Payload []byte
}

type ImportOutput struct {
	LedgerCells     int  `json:"ledgerCells"`
	Lists           int  `json:"lists"`
	BlockingEnabled bool `json:"blockingEnabled"`
	FocusRestored   bool `json:"focusRestored"`
}
