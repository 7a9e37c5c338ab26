package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// addAddrFlag is shared by every command that talks to a running
// theseusd server rather than owning a runtime directly (everything but
// `run`, since a session outlives any single CLI invocation once a
// server is managing it).
func addAddrFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("addr", "http://localhost:8080", "theseusd server address")
}

func getJSON(addr, path string, out any) error {
	resp, err := http.Get(addr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(addr, path string, body any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	resp, err := http.Post(addr+path, "application/json", r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	return nil
}
