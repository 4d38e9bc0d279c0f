package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Cardwatch.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Cardwatch.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan queues a manual full extraction.
func (c *Client) Scan() (*ScanResponse, error) {
	var resp ScanResponse
	if err := c.client.Call("Cardwatch.Scan", ScanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Extract queues a manual OCR preview.
func (c *Client) Extract() (*ExtractResponse, error) {
	var resp ExtractResponse
	if err := c.client.Call("Cardwatch.Extract", ExtractRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Turbo queues a manual fast-path update.
func (c *Client) Turbo() (*TurboResponse, error) {
	var resp TurboResponse
	if err := c.client.Call("Cardwatch.Turbo", TurboRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToggleAuto flips automatic triggering.
func (c *Client) ToggleAuto() (*ToggleAutoResponse, error) {
	var resp ToggleAutoResponse
	if err := c.client.Call("Cardwatch.ToggleAuto", ToggleAutoRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetLatch clears the initial-scan latch.
func (c *Client) ResetLatch() (*ResetLatchResponse, error) {
	var resp ResetLatchResponse
	if err := c.client.Call("Cardwatch.ResetLatch", ResetLatchRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tasks fetches the task tree for a daily record.
func (c *Client) Tasks(dailyID string) (*TasksResponse, error) {
	var resp TasksResponse
	if err := c.client.Call("Cardwatch.Tasks", TasksRequest{DailyID: dailyID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dailies lists known daily record IDs.
func (c *Client) Dailies() (*DailiesResponse, error) {
	var resp DailiesResponse
	if err := c.client.Call("Cardwatch.Dailies", DailiesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Projects lists the project catalog.
func (c *Client) Projects() (*ProjectsResponse, error) {
	var resp ProjectsResponse
	if err := c.client.Call("Cardwatch.Projects", ProjectsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Cardwatch.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
