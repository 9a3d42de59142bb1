package arena

import (
	"errors"
	"strings"

	"smarena/internal/rules"
	"smarena/pkg/models"
)

const (
	dokumentType        = "SM2"
	dokumentTypeVersjon = "1.0"
	merknadTypeRule     = "2"
	systemNavn          = "EIA"
	systemVersjon       = "1.0.0"
	unknownTSSID        = "0"
)

var ErrMissingJournalpostID = errors.New("journalpost id is required")

// CreateArenaSykmelding maps a received record and its matched rules to the
// Arena event. Every date comes from the record itself.
func CreateArenaSykmelding(received models.ReceivedSykmelding, hits []rules.Rule, journalpostID, tssID string) (*ArenaSykmelding, error) {
	if strings.TrimSpace(journalpostID) == "" {
		return nil, ErrMissingJournalpostID
	}

	if strings.TrimSpace(tssID) == "" {
		tssID = unknownTSSID
	}

	merknader := make([]Merknad, 0, len(hits))
	hendelser := make([]Hendelse, 0, len(hits))
	for _, rule := range hits {
		merknader = append(merknader, toMerknad(rule))
		hendelser = append(hendelser, toHendelse(rule, received.Sykmelding))
	}

	sykmelding := received.Sykmelding
	return &ArenaSykmelding{
		EiaDokumentInfo: EiaDokumentInfo{
			DokumentInfo: DokumentInfo{
				DokumentType:        dokumentType,
				DokumentTypeVersjon: dokumentTypeVersjon,
				Dokumentreferanse:   received.MsgID,
				EdiLoggID:           received.NavLogID,
				JournalReferanse:    journalpostID,
				DokumentDato:        received.MottattDato,
			},
			BehandlingInfo: BehandlingInfo{Merknad: merknader},
			Avsender: Avsender{
				Lege: Lege{LegeFnr: received.PersonNrLege, TSSID: tssID},
			},
			AvsenderSystem: AvsenderSystem{SystemNavn: systemNavn, SystemVersjon: systemVersjon},
		},
		ArenaHendelse: ArenaHendelse{Hendelse: hendelser},
		PasientData: PasientData{
			Person: Person{PersonFnr: received.PersonNrPasient},
		},
		FoersteFravaersdag: sykmelding.KontaktMedPasient.KontaktDato,
		IdentDato:          sykmelding.BehandletTidspunkt.Date(),
	}, nil
}

func toMerknad(rule rules.Rule) Merknad {
	return Merknad{
		MerknadNr:          rule.IDString(),
		MerknadType:        merknadTypeRule,
		MerknadBeskrivelse: rule.Name,
	}
}

func toHendelse(rule rules.Rule, sykmelding models.Sykmelding) Hendelse {
	return Hendelse{
		HendelsesTypeKode: string(rule.HendelseType),
		MeldingFraLege:    physicianMessage(rule, sykmelding),
		HendelseStatus:    string(rule.HendelseStatus),
		HendelseTekst:     rule.HendelseTekst,
	}
}

// physicianMessage picks the free text that belongs to a rule. Rules without
// an entry here carry no text.
func physicianMessage(rule rules.Rule, sykmelding models.Sykmelding) string {
	if rule.ID == nil {
		return ""
	}

	switch *rule.ID {
	case rules.RuleIDMessageToEmployer:
		return models.StringValue(sykmelding.MeldingTilArbeidsgiver)
	case rules.RuleIDMessageToNAV:
		if sykmelding.MeldingTilNAV == nil {
			return ""
		}
		return models.StringValue(sykmelding.MeldingTilNAV.BeskrivBistand)
	case rules.RuleIDOtherMeasures:
		return models.StringValue(sykmelding.AndreTiltak)
	default:
		return ""
	}
}
