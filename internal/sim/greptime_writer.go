package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"solarview/internal/telemetry"
)

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes placement rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client  greptimeClient
	table   string
	timeout time.Duration
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port"). An empty
// tableName uses telemetry.PlacementTableName.
func NewGreptimeDBWriter(endpoint, database, tableName string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if tableName == "" {
		tableName = telemetry.PlacementTableName
	}
	return &GreptimeDBWriter{client: client, table: tableName, timeout: 5 * time.Second}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GreptimeDB port %q: %w", portStr, err)
	}
	return host, port, nil
}

// WritePlacements inserts the rows of one frame.
func (w *GreptimeDBWriter) WritePlacements(f telemetry.PlacementFrame) error {
	return w.WriteFrames([]telemetry.PlacementFrame{f})
}

// WriteFrames inserts the rows of several frames in one request. Frames
// without a snapshot carry no rows and are skipped.
func (w *GreptimeDBWriter) WriteFrames(frames []telemetry.PlacementFrame) error {
	tbl, err := placementTable(w.table)
	if err != nil {
		return err
	}
	n := 0
	for _, f := range frames {
		for _, r := range f.Rows() {
			if err := tbl.AddRow(r.SessionID, r.Body, r.SceneX, r.SceneY, r.SceneZ,
				r.SimTime, r.Mode, r.SnapshotSeq, r.SnapshotTime, r.Timestamp); err != nil {
				return fmt.Errorf("add %s row: %w", r.Body, err)
			}
			n++
		}
	}
	if n == 0 {
		return nil
	}

	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	resp, err := w.client.Write(ctx, tbl)
	if err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	slog.Debug("wrote placement rows", "table", w.table, "rows", n, "affected", resp.GetAffectedRows().GetValue())
	return nil
}

func placementTable(name string) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	cols := []struct {
		name string
		kind types.ColumnType
		tag  bool
	}{
		{"session_id", types.STRING, true},
		{"body", types.STRING, true},
		{"scene_x", types.FLOAT64, false},
		{"scene_y", types.FLOAT64, false},
		{"scene_z", types.FLOAT64, false},
		{"sim_time", types.TIMESTAMP_MILLISECOND, false},
		{"mode", types.STRING, false},
		{"snapshot_seq", types.UINT64, false},
		{"snapshot_time", types.TIMESTAMP_MILLISECOND, false},
	}
	for _, c := range cols {
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.kind)
		} else {
			err = tbl.AddFieldColumn(c.name, c.kind)
		}
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.name, err)
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, fmt.Errorf("column ts: %w", err)
	}
	return tbl, nil
}
