package arena

import (
	"encoding/xml"

	"smarena/pkg/models"
)

// ArenaSykmelding is the case event delivered to the Arena queue.
type ArenaSykmelding struct {
	XMLName            xml.Name        `xml:"ArenaSykmelding"`
	EiaDokumentInfo    EiaDokumentInfo `xml:"eiaDokumentInfo"`
	ArenaHendelse      ArenaHendelse   `xml:"arenaHendelse"`
	PasientData        PasientData     `xml:"pasientData"`
	FoersteFravaersdag *models.Date    `xml:"foersteFravaersdag,omitempty"`
	IdentDato          models.Date     `xml:"identDato"`
}

type EiaDokumentInfo struct {
	DokumentInfo   DokumentInfo   `xml:"dokumentInfo"`
	BehandlingInfo BehandlingInfo `xml:"behandlingInfo"`
	Avsender       Avsender       `xml:"avsender"`
	AvsenderSystem AvsenderSystem `xml:"avsenderSystem"`
}

type DokumentInfo struct {
	DokumentType        string          `xml:"dokumentType"`
	DokumentTypeVersjon string          `xml:"dokumentTypeVersjon"`
	Dokumentreferanse   string          `xml:"dokumentreferanse"`
	EdiLoggID           string          `xml:"ediLoggId"`
	JournalReferanse    string          `xml:"journalReferanse"`
	DokumentDato        models.DateTime `xml:"dokumentDato"`
}

type BehandlingInfo struct {
	Merknad []Merknad `xml:"merknad"`
}

type Merknad struct {
	MerknadNr          string `xml:"merknadNr"`
	MerknadType        string `xml:"merknadType"`
	MerknadBeskrivelse string `xml:"merknadBeskrivelse"`
}

type Avsender struct {
	Lege Lege `xml:"lege"`
}

type Lege struct {
	LegeFnr string `xml:"legeFnr"`
	TSSID   string `xml:"tssId"`
}

type AvsenderSystem struct {
	SystemNavn    string `xml:"systemNavn"`
	SystemVersjon string `xml:"systemVersjon"`
}

type ArenaHendelse struct {
	Hendelse []Hendelse `xml:"hendelse"`
}

type Hendelse struct {
	HendelsesTypeKode string `xml:"hendelsesTypeKode"`
	MeldingFraLege    string `xml:"meldingFraLege"`
	HendelseStatus    string `xml:"hendelseStatus"`
	HendelseTekst     string `xml:"hendelseTekst"`
}

type PasientData struct {
	Person Person `xml:"person"`
}

type Person struct {
	PersonFnr string `xml:"personFnr"`
}

// Marshal renders the event as an indented XML document with declaration.
func Marshal(event *ArenaSykmelding) ([]byte, error) {
	body, err := xml.MarshalIndent(event, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
