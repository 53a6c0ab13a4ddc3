package models

import "time"

// MatchedRecord is one status-change event annotated with its matching outcome.
// OperationTime and TimeDiffSeconds are nil exactly when the row is unmatched,
// and IsRemoteOperation mirrors that.
type MatchedRecord struct {
	ContractID        string     `json:"contractId" msgpack:"cid"`
	StateTime         time.Time  `json:"stateTime" msgpack:"sts"`
	OperationTime     *time.Time `json:"operationTime" msgpack:"ots"`
	TimeDiffSeconds   *float64   `json:"timeDiffSeconds" msgpack:"tds"`
	IsRemoteOperation bool       `json:"isRemoteOperation" msgpack:"rop"`
	MessageName       string     `json:"messageName,omitempty" msgpack:"msg"`
	FloorCode         string     `json:"floorCode,omitempty" msgpack:"flc"`
	RoomName          string     `json:"roomName,omitempty" msgpack:"rnm"`
	EquipmentTypeID   string     `json:"equipmentTypeId,omitempty" msgpack:"eti"`
	EquipmentName     string     `json:"equipmentName,omitempty" msgpack:"enm"`
	PropertyCode      string     `json:"propertyCode,omitempty" msgpack:"pcd"`
	PropertyName      string     `json:"propertyName,omitempty" msgpack:"pnm"`
	PropertyValue     string     `json:"propertyValue,omitempty" msgpack:"pvl"`
}

// MatchedDataset is the ordered match result, one record per input status row.
// It is constructed once per matcher invocation; filters return new datasets
// instead of mutating the receiver.
type MatchedDataset struct {
	Records []MatchedRecord `json:"records" msgpack:"records"`
}

// NewMatchedDataset creates an empty dataset.
func NewMatchedDataset() *MatchedDataset {
	return &MatchedDataset{Records: make([]MatchedRecord, 0)}
}

// Len returns the number of records.
func (d *MatchedDataset) Len() int {
	return len(d.Records)
}

// FilterByContracts returns a new dataset containing only records whose
// contract ID is in ids.
func (d *MatchedDataset) FilterByContracts(ids []string) *MatchedDataset {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	out := NewMatchedDataset()
	for _, rec := range d.Records {
		if _, ok := want[rec.ContractID]; ok {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// FilterByTimeRange returns a new dataset containing only records whose state
// time falls in [start, end]. A nil end leaves the range open-ended.
func (d *MatchedDataset) FilterByTimeRange(start time.Time, end *time.Time) *MatchedDataset {
	out := NewMatchedDataset()
	for _, rec := range d.Records {
		if rec.StateTime.Before(start) {
			continue
		}
		if end != nil && rec.StateTime.After(*end) {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// TimeRange reports the state-time span of the dataset, or nil when empty.
func (d *MatchedDataset) TimeRange() *TimeRange {
	if len(d.Records) == 0 {
		return nil
	}
	tr := &TimeRange{Start: d.Records[0].StateTime, End: d.Records[0].StateTime}
	for _, rec := range d.Records[1:] {
		if rec.StateTime.Before(tr.Start) {
			tr.Start = rec.StateTime
		}
		if rec.StateTime.After(tr.End) {
			tr.End = rec.StateTime
		}
	}
	return tr
}

// TimeRange represents a time window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
