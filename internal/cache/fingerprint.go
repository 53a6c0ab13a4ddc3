package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Request describes everything that determines a cache entry's content. Any
// change to a field must change the fingerprint.
type Request struct {
	OperationPath    string
	StatePath        string
	OperationModTime time.Time
	StateModTime     time.Time
	OperationCols    []string
	StateCols        []string
	ContractIDs      []string
	Start            time.Time
	End              *time.Time
}

// Fingerprint derives the cache key as a sha256 digest over the request
// fields in a fixed order: source paths, modification times (ns), requested
// columns, sorted contract IDs, start, end. Contract IDs are sorted so the
// key is independent of caller ordering.
func Fingerprint(req Request) string {
	ids := append([]string(nil), req.ContractIDs...)
	sort.Strings(ids)

	end := ""
	if req.End != nil {
		end = req.End.UTC().Format(time.RFC3339Nano)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n", req.OperationPath, req.StatePath)
	fmt.Fprintf(h, "%d\n%d\n", req.OperationModTime.UnixNano(), req.StateModTime.UnixNano())
	fmt.Fprintf(h, "%s\n%s\n", strings.Join(req.OperationCols, ","), strings.Join(req.StateCols, ","))
	fmt.Fprintf(h, "%s\n", strings.Join(ids, ","))
	fmt.Fprintf(h, "%s\n%s\n", req.Start.UTC().Format(time.RFC3339Nano), end)

	return hex.EncodeToString(h.Sum(nil))
}
