// Package matcher reconciles the two event streams. Each status-change event
// is attributed to at most one remote-control operation that shares its full
// composite key and whose timestamp is the nearest within the tolerance
// window. The join is left-outer with the status side as left: every status
// row produces exactly one output record, matched or not.
package matcher

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

// DefaultTolerance is used when no override is configured.
const DefaultTolerance = 5 * time.Minute

// Match builds the matched dataset for the given events. A negative tolerance
// is a configuration error; zero means only exact-timestamp matches count.
//
// Records are emitted in partition-then-time order (composite key ascending,
// state timestamp ascending), which together with the earliest-wins tie-break
// makes the output fully deterministic for identical inputs.
func Match(ops []models.OperationEvent, states []models.StateChangeEvent, tolerance time.Duration) (*models.MatchedDataset, error) {
	if tolerance < 0 {
		return nil, &models.ConfigurationError{
			Key:    "MERGE_TOLERANCE_MINUTES",
			Reason: fmt.Sprintf("tolerance must be non-negative, got %s", tolerance),
		}
	}

	// Partition operation timestamps by composite key. Operations whose
	// timestamp failed to parse can never be candidates.
	opTimes := make(map[models.CompositeKey][]time.Time)
	for _, op := range ops {
		if op.Timestamp.IsZero() {
			continue
		}
		key := op.Key()
		opTimes[key] = append(opTimes[key], op.Timestamp)
	}
	for _, times := range opTimes {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}

	// Order status rows by partition, then time. The sort is stable so rows
	// with identical key and timestamp keep their input order.
	ordered := make([]models.StateChangeEvent, len(states))
	copy(ordered, states)
	sort.SliceStable(ordered, func(i, j int) bool {
		ki, kj := ordered[i].Key(), ordered[j].Key()
		if ki != kj {
			return ki.Less(kj)
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	result := models.NewMatchedDataset()
	result.Records = make([]models.MatchedRecord, 0, len(ordered))

	for _, st := range ordered {
		rec := models.MatchedRecord{
			ContractID:      st.ContractID,
			StateTime:       st.Timestamp,
			MessageName:     st.MessageName,
			FloorCode:       st.FloorCode,
			RoomName:        st.RoomName,
			EquipmentTypeID: st.EquipmentTypeID,
			EquipmentName:   st.EquipmentName,
			PropertyCode:    st.PropertyCode,
			PropertyName:    st.PropertyName,
			PropertyValue:   st.PropertyValue,
		}

		if !st.Timestamp.IsZero() {
			if opTime, ok := nearestWithin(opTimes[st.Key()], st.Timestamp, tolerance); ok {
				diff := math.Abs(st.Timestamp.Sub(opTime).Seconds())
				t := opTime
				rec.OperationTime = &t
				rec.TimeDiffSeconds = &diff
				rec.IsRemoteOperation = true
			}
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// nearestWithin finds the candidate timestamp closest to target, no farther
// than tolerance. When the candidates before and after target are exactly
// equidistant, the earlier one wins.
func nearestWithin(candidates []time.Time, target time.Time, tolerance time.Duration) (time.Time, bool) {
	if len(candidates) == 0 {
		return time.Time{}, false
	}

	// First candidate at or after target.
	idx := sort.Search(len(candidates), func(i int) bool {
		return !candidates[i].Before(target)
	})

	var best time.Time
	var bestDiff time.Duration
	found := false

	if idx > 0 {
		best = candidates[idx-1]
		bestDiff = target.Sub(best)
		found = true
	}
	if idx < len(candidates) {
		diff := candidates[idx].Sub(target)
		// Strict inequality keeps the earlier candidate on an exact tie.
		if !found || diff < bestDiff {
			best = candidates[idx]
			bestDiff = diff
			found = true
		}
	}

	if !found || bestDiff > tolerance {
		return time.Time{}, false
	}
	return best, true
}
