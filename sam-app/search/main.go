package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"search-assistant/backend"
	"search-assistant/config"
	"search-assistant/query"
	"search-assistant/shell"
)

type lambdaHandler struct {
	querier shell.Querier
	logger  *slog.Logger
}

func (l *lambdaHandler) handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	l.logger.InfoContext(ctx, "Handler started", slog.String("requestId", request.RequestContext.RequestID))

	var payload query.RequestPayload
	if err := json.Unmarshal([]byte(request.Body), &payload); err != nil {
		l.logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()}), nil
	}

	userQuery := strings.TrimSpace(payload.Query)
	if userQuery == "" {
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": "query is required"}), nil
	}

	result := l.querier.Submit(ctx, userQuery)
	if result.Failed() {
		l.logger.ErrorContext(ctx, "query failed", slog.String("error", result.ErrorMessage))
		return jsonResponse(http.StatusBadGateway, result), nil
	}

	return jsonResponse(http.StatusOK, result), nil
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	responseBytes, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       "something went wrong building the response",
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(responseBytes),
	}
}

// secretReader is the slice of the secrets manager API the handler needs.
type secretReader interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// backendEndpoint prefers the secret named by BACKEND_ENDPOINT_SECRET and falls back to BACKEND_ENDPOINT.
func backendEndpoint(ctx context.Context, secrets func() (secretReader, error)) (string, error) {
	secretID := os.Getenv("BACKEND_ENDPOINT_SECRET")
	if secretID == "" {
		return os.Getenv("BACKEND_ENDPOINT"), nil
	}

	sm, err := secrets()
	if err != nil {
		return "", err
	}
	secret, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", secretID, err)
	}
	endpoint := strings.TrimSpace(aws.ToString(secret.SecretString))
	if endpoint == "" {
		return "", errors.New("backend endpoint secret is empty")
	}
	return endpoint, nil
}

func secretsManager(ctx context.Context) func() (secretReader, error) {
	return func() (secretReader, error) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return secretsmanager.NewFromConfig(awsCfg), nil
	}
}

func main() {
	ctx := context.Background()

	settings, err := config.Load("")
	if err != nil {
		panic(err)
	}

	endpoint, err := backendEndpoint(ctx, secretsManager(ctx))
	if err != nil {
		panic(err)
	}
	if endpoint != "" {
		settings.Backend.Endpoint = endpoint
	}

	client, err := backend.New(settings.Backend)
	if err != nil {
		panic(err)
	}

	handler := lambdaHandler{
		querier: client,
		logger:  slog.Default(),
	}

	lambda.Start(handler.handler)
}
