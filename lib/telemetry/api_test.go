package telemetry_test

import (
	"errors"
	"testing"

	"corde-harvester/lib/telemetry"
	"corde-harvester/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestScopedSlogAPI(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	api := telemetry.NewScopedAPI("harvest", telemetry.SlogAPI{})

	api.ReportWarning("harvest.dedup", errors.New("page 3"))
	api.ReportCount("records", 12)
	api.ReportDebug("advancing", "page", 2)

	out := logs()
	require.Contains(t, out, "harvest: harvest.dedup")
	require.Contains(t, out, "page 3")
	require.Contains(t, out, "harvest: records")
	require.Contains(t, out, "advancing")
}
