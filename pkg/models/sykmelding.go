package models

import (
	"encoding/json"
	"fmt"
)

// ReceivedSykmelding is the sick-leave record as published by the reception pipeline.
type ReceivedSykmelding struct {
	Sykmelding        Sykmelding `json:"sykmelding"`
	PersonNrPasient   string     `json:"personNrPasient"`
	TlfPasient        *string    `json:"tlfPasient,omitempty"`
	PersonNrLege      string     `json:"personNrLege"`
	NavLogID          string     `json:"navLogId"`
	MsgID             string     `json:"msgId"`
	LegekontorOrgNr   *string    `json:"legekontorOrgNr,omitempty"`
	LegekontorHerID   *string    `json:"legekontorHerId,omitempty"`
	LegekontorReshID  *string    `json:"legekontorReshId,omitempty"`
	LegekontorOrgName string     `json:"legekontorOrgName"`
	MottattDato       DateTime   `json:"mottattDato"`
	RulesetVersion    *string    `json:"rulesetVersion,omitempty"`
	Merknader         []Merknad  `json:"merknader,omitempty"`
	Partnerreferanse  *string    `json:"partnerreferanse,omitempty"`
	TSSID             *string    `json:"tssid,omitempty"`
	Fellesformat      string     `json:"fellesformat,omitempty"`
}

type Sykmelding struct {
	ID                     string                             `json:"id"`
	MsgID                  string                             `json:"msgId"`
	Perioder               []Periode                          `json:"perioder"`
	UtdypendeOpplysninger  map[string]map[string]SporsmalSvar `json:"utdypendeOpplysninger"`
	AndreTiltak            *string                            `json:"andreTiltak,omitempty"`
	MeldingTilNAV          *MeldingTilNAV                     `json:"meldingTilNAV,omitempty"`
	MeldingTilArbeidsgiver *string                            `json:"meldingTilArbeidsgiver,omitempty"`
	KontaktMedPasient      KontaktMedPasient                  `json:"kontaktMedPasient"`
	BehandletTidspunkt     DateTime                           `json:"behandletTidspunkt"`
	SyketilfelleStartDato  *Date                              `json:"syketilfelleStartDato,omitempty"`
	SignaturDato           DateTime                           `json:"signaturDato"`
}

type Periode struct {
	Fom           Date     `json:"fom"`
	Tom           Date     `json:"tom"`
	Gradert       *Gradert `json:"gradert,omitempty"`
	Reisetilskudd bool     `json:"reisetilskudd"`
}

type Gradert struct {
	Reisetilskudd bool `json:"reisetilskudd"`
	Grad          int  `json:"grad"`
}

type MeldingTilNAV struct {
	BistandUmiddelbart bool    `json:"bistandUmiddelbart"`
	BeskrivBistand     *string `json:"beskrivBistand,omitempty"`
}

type KontaktMedPasient struct {
	KontaktDato            *Date   `json:"kontaktDato,omitempty"`
	BegrunnelseIkkeKontakt *string `json:"begrunnelseIkkeKontakt,omitempty"`
}

type SporsmalSvar struct {
	Sporsmal      *string  `json:"sporsmal,omitempty"`
	Svar          string   `json:"svar"`
	Restriksjoner []string `json:"restriksjoner"`
}

// Merknad is a remark attached upstream, for example a manual-handling marker.
type Merknad struct {
	Type        string  `json:"type"`
	Beskrivelse *string `json:"beskrivelse,omitempty"`
}

// RulesetVersionOrEmpty treats a missing version as the legacy "" version.
func (r ReceivedSykmelding) RulesetVersionOrEmpty() string {
	if r.RulesetVersion == nil {
		return ""
	}
	return *r.RulesetVersion
}

func (r ReceivedSykmelding) OrgNr() string {
	if r.LegekontorOrgNr == nil {
		return ""
	}
	return *r.LegekontorOrgNr
}

func DecodeReceivedSykmelding(data []byte) (*ReceivedSykmelding, error) {
	var r ReceivedSykmelding
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode received sykmelding: %w", err)
	}
	if r.Sykmelding.ID == "" {
		return nil, fmt.Errorf("received sykmelding %s has no sykmelding id", r.MsgID)
	}
	return &r, nil
}

// StringValue dereferences optional free-text fields.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func StringPtr(s string) *string {
	return &s
}
