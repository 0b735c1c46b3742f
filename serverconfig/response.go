package serverconfig

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ConfigResponse is the body of GET /api/config.
type ConfigResponse struct {
	Environment   *EnvironmentResponse `json:"environment,omitempty"`
	FeatureStates map[string]any       `json:"featureStates"`
	GitHash       string               `json:"gitHash"`
	Server        *ThirdPartyServer    `json:"server,omitempty"`
	Version       string               `json:"version"`
}

// EnvironmentResponse lists the service URLs the server advertises.
type EnvironmentResponse struct {
	CloudRegion   string `json:"cloudRegion,omitempty"`
	Vault         string `json:"vault,omitempty"`
	API           string `json:"api,omitempty"`
	Identity      string `json:"identity,omitempty"`
	Notifications string `json:"notifications,omitempty"`
	SSO           string `json:"sso,omitempty"`
}

// ThirdPartyServer is set when the client talks to a non-official server.
type ThirdPartyServer struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Decode parses a configuration response body.
func Decode(r io.Reader) (*ConfigResponse, error) {
	var resp ConfigResponse
	if err := jsonAPI.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, nil
}
