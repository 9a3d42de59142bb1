package models

import (
	"encoding/json"
	"fmt"
)

// RegisterJournal is published when the record has been archived and a journal post created.
type RegisterJournal struct {
	JournalpostKilde string `json:"journalpostKilde"`
	MessageID        string `json:"messageId"`
	SakID            string `json:"sakId"`
	JournalpostID    string `json:"journalpostId"`
}

// JoinedRecord pairs the original record bytes with its journal id. Bytes are base64 in JSON.
type JoinedRecord struct {
	ReceivedSykmelding []byte `json:"receivedSykmelding"`
	JournalpostID      string `json:"journalpostId"`
}

func DecodeRegisterJournal(data []byte) (*RegisterJournal, error) {
	var j RegisterJournal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to decode register journal: %w", err)
	}
	if j.JournalpostID == "" {
		return nil, fmt.Errorf("register journal for message %s has no journalpost id", j.MessageID)
	}
	return &j, nil
}

func DecodeJoinedRecord(data []byte) (*JoinedRecord, error) {
	var j JoinedRecord
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to decode joined record: %w", err)
	}
	if len(j.ReceivedSykmelding) == 0 {
		return nil, fmt.Errorf("joined record has no sykmelding payload")
	}
	return &j, nil
}
