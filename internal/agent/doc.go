// Package agent implements the prediction step of the session event loop
// (spec §4.3): given a task, the latest observation, and a read-only view
// of the session, it builds a model prompt, invokes the configured Model,
// and parses the reply into a (thought, action, raw_output) triple.
//
// The Agent itself never dispatches tools or touches the environment; it
// only predicts and parses. Command dispatch lives in the session event
// loop, grounded on original_source/theseus_agent/agents/conversational_agent.py.
package agent
