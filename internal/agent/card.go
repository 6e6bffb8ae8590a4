// Package agent holds the agent card served at /.well-known/agent.json.
package agent

import (
	_ "embed"
	"encoding/json"
	"errors"
	"sync"
)

//go:embed agent.json
var agentCard []byte

var (
	AgentCardData []byte

	loadOnce sync.Once
	loadErr  error
)

// LoadAgentCard checks the embedded card and publishes it in AgentCardData.
func LoadAgentCard() error {
	loadOnce.Do(func() {
		if !json.Valid(agentCard) {
			loadErr = errors.New("embedded agent card is not valid JSON")
			return
		}
		AgentCardData = agentCard
	})
	return loadErr
}
