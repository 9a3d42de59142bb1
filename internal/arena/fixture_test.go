package arena

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"smarena/pkg/models"
)

const journalpostID = "12355234"

func receivedFixture() models.ReceivedSykmelding {
	kontaktDato := models.NewDate(2018, time.December, 28)
	return models.ReceivedSykmelding{
		Sykmelding: models.Sykmelding{
			ID:    "d6112773-9587-41d8-9a3f-c8cb42364936",
			MsgID: "12314-123124-43252-2344",
			Perioder: []models.Periode{{
				Fom: models.NewDate(2019, time.January, 1),
				Tom: models.NewDate(2019, time.March, 1),
			}},
			UtdypendeOpplysninger:  map[string]map[string]models.SporsmalSvar{},
			MeldingTilArbeidsgiver: models.StringPtr("Tilrettelegging anbefales"),
			KontaktMedPasient:      models.KontaktMedPasient{KontaktDato: &kontaktDato},
			BehandletTidspunkt:     models.NewDateTime(2019, time.January, 2, 10, 15, 30),
			SignaturDato:           models.NewDateTime(2019, time.January, 2, 10, 15, 30),
		},
		PersonNrPasient:   "123124",
		TlfPasient:        models.StringPtr("13214"),
		PersonNrLege:      "123145",
		NavLogID:          "0412",
		MsgID:             "12314-123124-43252-2344",
		LegekontorOrgNr:   models.StringPtr(""),
		LegekontorOrgName: "Legevakt",
		MottattDato:       models.NewDateTime(2019, time.January, 2, 11, 0, 0),
		TSSID:             models.StringPtr(""),
	}
}

func joinedValue(t *testing.T, received models.ReceivedSykmelding) []byte {
	t.Helper()
	record, err := json.Marshal(received)
	require.NoError(t, err)
	value, err := json.Marshal(models.JoinedRecord{ReceivedSykmelding: record, JournalpostID: journalpostID})
	require.NoError(t, err)
	return value
}
