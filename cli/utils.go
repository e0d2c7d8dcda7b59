package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/lxc/incus/v6/shared/api"
	"github.com/lxc/incus/v6/shared/termios"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v2"
)

func doQuery(do func(req *http.Request) (*http.Response, error), method string, path string, inData any, outData io.Writer) (*api.Response, error) {
	var (
		req *http.Request
		err error
	)

	ctx := context.Background()

	// Get a new HTTP request setup
	if inData != nil {
		// Encode the provided data
		buf := bytes.Buffer{}

		err := json.NewEncoder(&buf).Encode(inData)
		if err != nil {
			return nil, err
		}

		// Use a reader since the request body needs to be seekable
		req, err = http.NewRequestWithContext(ctx, method, path, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}

		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(buf.Bytes())), nil }

		// Set the encoding accordingly
		req.Header.Set("Content-Type", "application/json")
	} else {
		// No data to be sent along with the request
		req, err = http.NewRequestWithContext(ctx, method, path, nil)
		if err != nil {
			return nil, err
		}
	}

	// Send the request
	resp, err := do(req)
	if err != nil {
		return nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	// Handle direct download.
	if outData != nil && resp.StatusCode == http.StatusOK {
		_, err = io.Copy(outData, resp.Body)
		if err != nil {
			return nil, err
		}

		return nil, nil
	}

	// Decode the response
	decoder := json.NewDecoder(resp.Body)
	response := api.Response{}

	err = decoder.Decode(&response)
	if err != nil {
		// Check the return value for a cleaner error
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: %s", resp.Request.URL.String(), resp.Status)
		}

		return nil, err
	}

	// Handle errors
	if response.Type == api.ErrorResponse {
		return &response, api.StatusErrorf(resp.StatusCode, "%v", response.Error)
	}

	return &response, nil
}

// printYAML renders the response metadata as YAML.
func printYAML(w io.Writer, resp *api.Response) error {
	var rawData any

	err := resp.MetadataAsStruct(&rawData)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(rawData)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s", data)

	return err
}

// readYAML decodes a YAML document piped on stdin.
func readYAML(dest any) error {
	if stdinIsTerminal() {
		return errors.New("expected YAML input on stdin")
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(content, dest)
}

func stdinIsTerminal() bool {
	return termios.IsTerminal(unix.Stdin)
}
