package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const chatCompletionOK = `{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"gpt-4o",` +
	`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Body\n1. a, b\n2. kp\n3. md"}}]}`

// chatServer answers every chat completion call with status and body and keeps the last request body.
type chatServer struct {
	*httptest.Server
	mu   sync.Mutex
	body []byte
}

func newChatServer(t *testing.T, status int, body string) *chatServer {
	t.Helper()
	cs := &chatServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.body = data
		cs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(cs.Close)
	return cs
}

// sent decodes the last request body.
func (cs *chatServer) sent(t *testing.T) map[string]any {
	t.Helper()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.body == nil {
		t.Fatal("no request reached the server")
	}
	var m map[string]any
	if err := json.Unmarshal(cs.body, &m); err != nil {
		t.Fatalf("decode request %s: %v", cs.body, err)
	}
	return m
}

// checkChatRequest asserts the model, temperature and the system/user roles sent upstream.
func checkChatRequest(t *testing.T, req map[string]any) {
	t.Helper()
	if req["model"] != DefaultModel {
		t.Errorf("model = %v, want %s", req["model"], DefaultModel)
	}
	temp, _ := req["temperature"].(float64)
	if math.Abs(temp-DefaultTemperature) > 1e-6 {
		t.Errorf("temperature = %v, want %v", req["temperature"], DefaultTemperature)
	}
	msgs, _ := req["messages"].([]any)
	var roles []string
	for _, m := range msgs {
		if mm, ok := m.(map[string]any); ok {
			role, _ := mm["role"].(string)
			roles = append(roles, role)
		}
	}
	if strings.Join(roles, ",") != "system,user" {
		t.Errorf("roles = %v", roles)
	}
}

func newOpenAITestAgent(t *testing.T, cs *chatServer) *Agent {
	t.Helper()
	llm, err := NewOpenAILLMFromConfig(&LLMSettings{Provider: "openai", Model: DefaultModel, APIKey: "sk-test", BaseURL: cs.URL + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	agent, err := NewAgent(llm)
	if err != nil {
		t.Fatal(err)
	}
	return agent
}

func TestOpenAILLMSendsModelAndTemperature(t *testing.T) {
	cs := newChatServer(t, http.StatusOK, chatCompletionOK)
	agent := newOpenAITestAgent(t, cs)

	res, err := agent.Generate(context.Background(), Request{Topic: "AI", ContentType: Blog})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.TagLine != "a, b" || res.MainContent != "Body" {
		t.Errorf("unexpected result %+v", res)
	}
	checkChatRequest(t, cs.sent(t))
}

func TestOpenAILLMFailuresAreTransportErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"empty choices": {http.StatusOK, `{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"gpt-4o","choices":[]}`},
		"unauthorized":  {http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cs := newChatServer(t, tc.status, tc.body)
			agent := newOpenAITestAgent(t, cs)

			_, err := agent.Generate(context.Background(), Request{Topic: "AI", ContentType: Blog})
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransportError, got %T %v", err, err)
			}
		})
	}
}

func TestNewOpenAILLMRequiresKey(t *testing.T) {
	if _, err := NewOpenAILLMFromConfig(&LLMSettings{Model: DefaultModel}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewOpenAILLMFromConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
