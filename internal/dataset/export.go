package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

// csvHeader is the flat export column order, match outcome first.
var csvHeader = []string{
	"ContractId",
	"StateTime",
	"OperationTime",
	"TimeDiffSeconds",
	"IsRemoteOperation",
	"MessageName",
	"FloorCode",
	"RoomName",
	"EquipmentTypeId",
	"EquipmentName",
	"PropertyCode",
	"PropertyName",
	"PropertyValue",
}

// ExportCSV writes the flat textual form of the dataset. Nulls become empty
// cells and all type information is textual; use Save for the lossless form.
func ExportCSV(ds *models.MatchedDataset, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, rec := range ds.Records {
		opTime := ""
		if rec.OperationTime != nil {
			opTime = rec.OperationTime.UTC().Format(time.RFC3339Nano)
		}
		diff := ""
		if rec.TimeDiffSeconds != nil {
			diff = strconv.FormatFloat(*rec.TimeDiffSeconds, 'f', -1, 64)
		}
		stateTime := ""
		if !rec.StateTime.IsZero() {
			stateTime = rec.StateTime.UTC().Format(time.RFC3339Nano)
		}

		row := []string{
			rec.ContractID,
			stateTime,
			opTime,
			diff,
			strconv.FormatBool(rec.IsRemoteOperation),
			rec.MessageName,
			rec.FloorCode,
			rec.RoomName,
			rec.EquipmentTypeID,
			rec.EquipmentName,
			rec.PropertyCode,
			rec.PropertyName,
			rec.PropertyValue,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
