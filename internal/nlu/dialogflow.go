package nlu

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/garyellow/whattoeat-linebot/internal/apiclient"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
)

// DefaultDialogflowBaseURL is the legacy (v1) Dialogflow endpoint.
const DefaultDialogflowBaseURL = "https://api.api.ai/v1"

// dialogflowProtocolVersion pins the v1 query response shape.
const dialogflowProtocolVersion = "20150910"

type dialogflowRequest struct {
	Query     string `json:"query"`
	Lang      string `json:"lang"`
	SessionID string `json:"sessionId"`
}

type dialogflowResponse struct {
	ID     string `json:"id"`
	Result struct {
		ResolvedQuery string `json:"resolvedQuery"`
		Action        string `json:"action"`
		Metadata      struct {
			IntentID   string `json:"intentId"`
			IntentName string `json:"intentName"`
		} `json:"metadata"`
		Score float64 `json:"score"`
	} `json:"result"`
	Status struct {
		Code         int    `json:"code"`
		ErrorType    string `json:"errorType"`
		ErrorDetails string `json:"errorDetails"`
	} `json:"status"`
	SessionID string `json:"sessionId"`
}

// DialogflowClassifier queries a Dialogflow agent's text query endpoint.
type DialogflowClassifier struct {
	api     *apiclient.Client
	token   string
	baseURL string
}

// NewDialogflowClassifier creates a Dialogflow classifier.
// An empty baseURL uses DefaultDialogflowBaseURL.
func NewDialogflowClassifier(api *apiclient.Client, token, baseURL string) (*DialogflowClassifier, error) {
	if token == "" {
		return nil, fmt.Errorf("dialogflow: %w", domerrors.ErrNotConfigured)
	}
	if baseURL == "" {
		baseURL = DefaultDialogflowBaseURL
	}
	return &DialogflowClassifier{
		api:     api,
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Classify sends the text to the agent and returns its matched intent.
// An unmatched query yields an empty Name, not an error.
func (c *DialogflowClassifier) Classify(ctx context.Context, q Query) (*Result, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("dialogflow: empty query: %w", domerrors.ErrInvalidInput)
	}
	lang := q.Lang
	if lang == "" {
		lang = DetectLanguage(q.Text)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	var resp dialogflowResponse
	url := c.baseURL + "/query?v=" + dialogflowProtocolVersion
	err := c.api.PostJSON(ctx, url, header, dialogflowRequest{
		Query:     q.Text,
		Lang:      string(lang),
		SessionID: q.SessionID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("dialogflow query: %w", err)
	}

	if resp.Status.Code != http.StatusOK {
		return nil, domerrors.NewAPIError(c.api.Service(), c.baseURL+"/query", resp.Status.Code,
			fmt.Errorf("%s: %s", resp.Status.ErrorType, resp.Status.ErrorDetails))
	}
	return &Result{
		Name:     resp.Result.Metadata.IntentName,
		Provider: ProviderDialogflow,
	}, nil
}

// Provider returns ProviderDialogflow.
func (c *DialogflowClassifier) Provider() Provider {
	return ProviderDialogflow
}

// Close is a no-op; the shared HTTP client outlives the classifier.
func (c *DialogflowClassifier) Close() error {
	return nil
}
