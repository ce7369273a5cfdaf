package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookService delivers count line items to the configured external
// endpoint. Delivery is best-effort and at-most-once: one POST per line
// item, failures logged and never surfaced to the submitter.
type WebhookService struct {
	db         *gorm.DB
	queue      TaskQueue
	httpClient *http.Client
}

func NewWebhookService(db *gorm.DB, queue TaskQueue, timeout time.Duration) *WebhookService {
	return &WebhookService{
		db:         db,
		queue:      queue,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookService) getConfig() (*models.WebhookConfig, error) {
	var cfg models.WebhookConfig
	err := s.db.Where("id = ?", models.SingletonID).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = models.WebhookConfig{ID: models.SingletonID}
		if createErr := s.db.Create(&cfg).Error; createErr != nil {
			return nil, response.NewUpstreamStoreError("failed to initialize webhook config")
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, response.NewUpstreamStoreError("failed to read webhook config")
	}
	return &cfg, nil
}

// GetConfig returns the webhook config with the token masked out.
func (s *WebhookService) GetConfig() (*models.WebhookConfig, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}
	cfg.TokenSet = cfg.Token != ""
	return cfg, nil
}

// UpdateWebhookRequest updates the outbound webhook target.
type UpdateWebhookRequest struct {
	URL     *string `json:"url"`
	Token   *string `json:"token"`
	Enabled *bool   `json:"enabled"`
}

func (s *WebhookService) UpdateConfig(req *UpdateWebhookRequest) (*models.WebhookConfig, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}

	if req.URL != nil {
		if *req.URL != "" {
			parsed, parseErr := url.Parse(*req.URL)
			if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
				return nil, response.NewInvalidInput("webhook url must be a valid absolute URL")
			}
		}
		cfg.URL = *req.URL
	}
	if req.Token != nil {
		cfg.Token = *req.Token
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}

	if err := s.db.Save(cfg).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to update webhook config")
	}
	cfg.TokenSet = cfg.Token != ""
	return cfg, nil
}

// CountLine is one (asset, quantity) line of a submission handed to the
// dispatcher.
type CountLine struct {
	AssetName string
	Quantity  int
	Note      string
}

// DispatchCount fans out one delivery per line item. No-op when the webhook
// is disabled or has no URL. Enqueue failures are logged only; dispatch
// never affects the submission result.
func (s *WebhookService) DispatchCount(email, storeName, kind string, lines []CountLine) {
	cfg, err := s.getConfig()
	if err != nil {
		logger.Warn().Err(err).Msg("webhook dispatch skipped: config unavailable")
		return
	}
	if !cfg.Enabled || cfg.URL == "" {
		return
	}

	dispatchID := uuid.NewString()
	for _, line := range lines {
		delivery := &WebhookDelivery{
			DispatchID: dispatchID,
			Email:      email,
			StoreName:  storeName,
			Kind:       kind,
			AssetName:  line.AssetName,
			Quantity:   line.Quantity,
			Note:       line.Note,
		}
		if err := s.queue.Enqueue(delivery); err != nil {
			logger.Warn().
				Err(err).
				Str("dispatch_id", dispatchID).
				Str("asset", line.AssetName).
				Msg("failed to enqueue webhook delivery")
		}
	}

	logger.Debug().
		Str("dispatch_id", dispatchID).
		Str("store", storeName).
		Int("items", len(lines)).
		Msg("webhook dispatch queued")
}

// Payload field names follow the consumer's contract (Portuguese).
type webhookLineItem struct {
	Email     string `json:"email"`
	AssetName string `json:"ativo_nome"`
	Quantity  int    `json:"quantidade"`
	StoreName string `json:"loja_nome"`
	Kind      string `json:"tipo"`
	Note      string `json:"obs,omitempty"`
}

type webhookPayload struct {
	Contagens []webhookLineItem `json:"contagens"`
}

// Deliver performs the HTTP POST for one line item. Used as the queue
// processor; the returned error stays inside the dispatch boundary.
func (s *WebhookService) Deliver(ctx context.Context, delivery *WebhookDelivery) error {
	cfg, err := s.getConfig()
	if err != nil {
		return err
	}
	if !cfg.Enabled || cfg.URL == "" {
		return nil
	}

	payload := webhookPayload{
		Contagens: []webhookLineItem{{
			Email:     delivery.Email,
			AssetName: delivery.AssetName,
			Quantity:  delivery.Quantity,
			StoreName: delivery.StoreName,
			Kind:      delivery.Kind,
			Note:      delivery.Note,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	logger.Debug().
		Str("dispatch_id", delivery.DispatchID).
		Str("asset", delivery.AssetName).
		Int("status", resp.StatusCode).
		Msg("webhook delivered")
	return nil
}
