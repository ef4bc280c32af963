package job

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	ParamLaunchDate = "launchDate"
	ParamLaunchNano = "launchNano"
)

// Parameters are the run-scoped values handed to the pipeline factory. Two launches with equal
// parameters have the same identity.
type Parameters map[string]string

// NewParameters mixes the launch time, down to the nanosecond, into the parameters so that
// successive launches within the same period never share an identity
func NewParameters(launchTime time.Time) Parameters {
	return Parameters{
		ParamLaunchDate: launchTime.Format(time.RFC3339Nano),
		ParamLaunchNano: strconv.FormatInt(launchTime.UnixNano(), 10),
	}
}

// Identity returns a stable representation of the parameters for the given job
func (p Parameters) Identity(jobName string) string {
	var sb strings.Builder
	sb.WriteString(jobName)
	for _, key := range slices.Sorted(maps.Keys(p)) {
		_, _ = fmt.Fprintf(&sb, ";%s=%s", key, p[key])
	}
	return sb.String()
}
