package models

import "time"

// OperationEvent is one row of the equipment remote-control operation history.
// Timestamp is the order-receipt time and is authoritative for matching.
// A zero Timestamp means the source value failed to parse and is treated as null.
type OperationEvent struct {
	ContractID      string    `json:"contractId" msgpack:"cid"`
	Timestamp       time.Time `json:"timestamp" msgpack:"ts"`
	TimerDiv        string    `json:"timerDiv,omitempty" msgpack:"tdv"`
	FloorCode       string    `json:"floorCode,omitempty" msgpack:"flc"`
	RoomName        string    `json:"roomName,omitempty" msgpack:"rnm"`
	EquipmentTypeID string    `json:"equipmentTypeId,omitempty" msgpack:"eti"`
	EquipmentName   string    `json:"equipmentName,omitempty" msgpack:"enm"`
	PropertyCode    string    `json:"propertyCode,omitempty" msgpack:"pcd"`
	PropertyName    string    `json:"propertyName,omitempty" msgpack:"pnm"`
	PropertyValue   string    `json:"propertyValue,omitempty" msgpack:"pvl"`
	Deleted         bool      `json:"deleted,omitempty" msgpack:"del"`
}

// StateChangeEvent is one row of the equipment status-change history.
// It is recorded whether or not the change was caused by a remote operation;
// resolving that ambiguity is the matcher's job.
type StateChangeEvent struct {
	MessageName     string    `json:"messageName,omitempty" msgpack:"msg"`
	ContractID      string    `json:"contractId" msgpack:"cid"`
	Timestamp       time.Time `json:"timestamp" msgpack:"ts"`
	FloorCode       string    `json:"floorCode,omitempty" msgpack:"flc"`
	RoomName        string    `json:"roomName,omitempty" msgpack:"rnm"`
	EquipmentTypeID string    `json:"equipmentTypeId,omitempty" msgpack:"eti"`
	EquipmentName   string    `json:"equipmentName,omitempty" msgpack:"enm"`
	PropertyCode    string    `json:"propertyCode,omitempty" msgpack:"pcd"`
	PropertyName    string    `json:"propertyName,omitempty" msgpack:"pnm"`
	PropertyValue   string    `json:"propertyValue,omitempty" msgpack:"pvl"`
	Deleted         bool      `json:"deleted,omitempty" msgpack:"del"`
}

// CompositeKey is the tuple of descriptive attributes that partitions events
// before time-matching. Missing attributes are already normalized to "" in the
// event structs, so two rows missing the same attribute compare equal on it.
// The struct is comparable and used directly as a map key.
type CompositeKey struct {
	ContractID      string
	FloorCode       string
	RoomName        string
	EquipmentTypeID string
	EquipmentName   string
	PropertyCode    string
	PropertyName    string
	PropertyValue   string
}

// Key returns the grouping key for an operation event.
func (e OperationEvent) Key() CompositeKey {
	return CompositeKey{
		ContractID:      e.ContractID,
		FloorCode:       e.FloorCode,
		RoomName:        e.RoomName,
		EquipmentTypeID: e.EquipmentTypeID,
		EquipmentName:   e.EquipmentName,
		PropertyCode:    e.PropertyCode,
		PropertyName:    e.PropertyName,
		PropertyValue:   e.PropertyValue,
	}
}

// Key returns the grouping key for a status-change event.
func (e StateChangeEvent) Key() CompositeKey {
	return CompositeKey{
		ContractID:      e.ContractID,
		FloorCode:       e.FloorCode,
		RoomName:        e.RoomName,
		EquipmentTypeID: e.EquipmentTypeID,
		EquipmentName:   e.EquipmentName,
		PropertyCode:    e.PropertyCode,
		PropertyName:    e.PropertyName,
		PropertyValue:   e.PropertyValue,
	}
}

// Less orders keys field by field, giving the deterministic partition order
// used when emitting matched records.
func (k CompositeKey) Less(other CompositeKey) bool {
	if k.ContractID != other.ContractID {
		return k.ContractID < other.ContractID
	}
	if k.FloorCode != other.FloorCode {
		return k.FloorCode < other.FloorCode
	}
	if k.RoomName != other.RoomName {
		return k.RoomName < other.RoomName
	}
	if k.EquipmentTypeID != other.EquipmentTypeID {
		return k.EquipmentTypeID < other.EquipmentTypeID
	}
	if k.EquipmentName != other.EquipmentName {
		return k.EquipmentName < other.EquipmentName
	}
	if k.PropertyCode != other.PropertyCode {
		return k.PropertyCode < other.PropertyCode
	}
	if k.PropertyName != other.PropertyName {
		return k.PropertyName < other.PropertyName
	}
	return k.PropertyValue < other.PropertyValue
}
