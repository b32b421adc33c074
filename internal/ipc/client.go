package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client is the CLI side of the daemon's JSON-RPC socket.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the daemon socket, failing fast when nothing listens.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call invokes one RPC method and decodes its typed response.
func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := c.client.Call("Cine."+method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Start asks the daemon to bring its surfaces up.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Start", StartRequest{})
}

// Stop asks the daemon to shut its surfaces down.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// SeriesList returns catalog entries, optionally filtered by status.
func (c *Client) SeriesList(statuses []string) (*SeriesListResponse, error) {
	return call[SeriesListResponse](c, "SeriesList", SeriesListRequest{Statuses: statuses})
}

// SeriesDescribe returns details for a single series.
func (c *Client) SeriesDescribe(id int64) (*SeriesDescribeResponse, error) {
	return call[SeriesDescribeResponse](c, "SeriesDescribe", SeriesDescribeRequest{ID: id})
}

// SeriesImport imports the given source files.
func (c *Client) SeriesImport(paths []string) (*SeriesImportResponse, error) {
	return call[SeriesImportResponse](c, "SeriesImport", SeriesImportRequest{Paths: paths})
}

// SeriesRemove removes series by id.
func (c *Client) SeriesRemove(ids []int64, keepFrames bool) (*SeriesRemoveResponse, error) {
	return call[SeriesRemoveResponse](c, "SeriesRemove", SeriesRemoveRequest{IDs: ids, KeepFrames: keepFrames})
}

// SeriesReimport restarts frame extraction for a series.
func (c *Client) SeriesReimport(id int64) (*SeriesReimportResponse, error) {
	return call[SeriesReimportResponse](c, "SeriesReimport", SeriesReimportRequest{ID: id})
}

// SeriesScan imports every candidate file in the inbox directory.
func (c *Client) SeriesScan() (*SeriesScanResponse, error) {
	return call[SeriesScanResponse](c, "SeriesScan", SeriesScanRequest{})
}

// SessionOpen opens a playback session for a ready series.
func (c *Client) SessionOpen(seriesID int64) (*SessionOpenResponse, error) {
	return call[SessionOpenResponse](c, "SessionOpen", SessionOpenRequest{SeriesID: seriesID})
}

// SessionClose closes a session.
func (c *Client) SessionClose(id string) (*SessionCloseResponse, error) {
	return call[SessionCloseResponse](c, "SessionClose", SessionCloseRequest{ID: id})
}

// SessionList returns open sessions.
func (c *Client) SessionList() (*SessionListResponse, error) {
	return call[SessionListResponse](c, "SessionList", SessionListRequest{})
}

// SessionState returns one session's playback state.
func (c *Client) SessionState(id string) (*SessionStateResponse, error) {
	return call[SessionStateResponse](c, "SessionState", SessionStateRequest{ID: id})
}

// SessionEvents polls buffered engine events past a cursor.
func (c *Client) SessionEvents(req SessionEventsRequest) (*SessionEventsResponse, error) {
	return call[SessionEventsResponse](c, "SessionEvents", req)
}

// SessionFrame fetches one frame payload from a session.
func (c *Client) SessionFrame(id string, index int) (*SessionFrameResponse, error) {
	return call[SessionFrameResponse](c, "SessionFrame", SessionFrameRequest{ID: id, Index: index})
}

// Command routes a playback command to a session engine.
func (c *Client) Command(sessionID string, cmd PlaybackCommand) (*CommandResponse, error) {
	return call[CommandResponse](c, "Command", CommandRequest{SessionID: sessionID, Command: cmd})
}

// Input routes a raw input gesture to a session engine.
func (c *Client) Input(sessionID string, event InputEvent) (*InputResponse, error) {
	return call[InputResponse](c, "Input", InputRequest{SessionID: sessionID, Event: event})
}

// LogTail returns daemon log lines past an offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailResponse](c, "LogTail", req)
}
