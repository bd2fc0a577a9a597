package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/matienzar/spotify-podcast-extractor/internal/services"
	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
)

// maxCategoryLength caps stored category names.
const maxCategoryLength = 50

// PendingEpisode is the slice of episode data the categorizer needs.
type PendingEpisode struct {
	ID          string
	Title       string
	Description string
	ShowName    string
}

// BatchCategorizer assigns categories to batches of episodes through a
// [services.Categorizer], guarded by a [Throttle] and a [QuotaBreaker].
//
// One provider call covers the whole batch: the unique-category ceiling
// cannot be enforced across separate per-episode calls, and batching
// amortizes both latency and quota.
type BatchCategorizer struct {
	provider         services.Categorizer
	throttle         *Throttle
	breaker          *QuotaBreaker
	maxCategories    int
	descriptionLimit int
	logger           *log.Logger
}

// NewBatchCategorizer creates a BatchCategorizer with fresh throttle and
// breaker state. Each run constructs its own instance; nothing is global.
func NewBatchCategorizer(provider services.Categorizer, cfg shared.CategorizationConfig, logger *log.Logger) *BatchCategorizer {
	if provider == nil {
		provider = services.NoopCategorizer{}
	}
	return &BatchCategorizer{
		provider:         provider,
		throttle:         NewThrottle(cfg.RPMLimit, logger),
		breaker:          NewQuotaBreaker(logger),
		maxCategories:    cfg.MaxCategories,
		descriptionLimit: cfg.DescriptionLimit,
		logger:           logger,
	}
}

// Enabled reports whether the underlying provider can serve requests.
func (c *BatchCategorizer) Enabled() bool {
	return c.provider.Enabled()
}

// Tripped reports whether the quota breaker has latched.
func (c *BatchCategorizer) Tripped() bool {
	return c.breaker.Tripped()
}

// CategorizeBatch builds a single classification request for the episodes
// and returns an episode-id to category mapping.
//
// The mapping may cover any subset of the batch, including none of it:
// disabled provider, tripped breaker, empty input, quota exhaustion,
// transport errors and unparseable responses all yield an empty mapping
// without an error. Episodes absent from the mapping stay pending and are
// retried on a later pass; this method never writes to storage.
func (c *BatchCategorizer) CategorizeBatch(ctx context.Context, episodes []PendingEpisode, existing []string) map[string]string {
	if len(episodes) == 0 {
		return map[string]string{}
	}
	if c.breaker.Tripped() || !c.provider.Enabled() {
		return map[string]string{}
	}

	prompt := c.buildPrompt(episodes, existing)

	if err := c.throttle.Wait(ctx); err != nil {
		c.logger.Error("rate limiter interrupted", "error", err)
		return map[string]string{}
	}

	raw, err := c.provider.GenerateContent(ctx, prompt)
	if err != nil {
		if errors.Is(err, shared.ErrQuotaExhausted) {
			c.breaker.Trip()
		} else {
			c.logger.Warn("categorization request failed", "episodes", len(episodes), "error", err)
		}
		return map[string]string{}
	}

	mapping, err := parseCategoryMapping(raw)
	if err != nil {
		c.logger.Warn("could not parse categorization response", "error", err, "raw", raw)
		return map[string]string{}
	}

	// Keep only entries for episodes we actually asked about.
	requested := make(map[string]bool, len(episodes))
	for _, ep := range episodes {
		requested[ep.ID] = true
	}

	result := make(map[string]string, len(mapping))
	for id, category := range mapping {
		if !requested[id] {
			continue
		}
		result[id] = normalizeCategory(category)
	}

	return result
}

// buildPrompt renders the batch classification request. The response
// contract is a bare JSON object keyed by episode id, with at most
// maxCategories unique category values across the whole batch.
func (c *BatchCategorizer) buildPrompt(episodes []PendingEpisode, existing []string) string {
	var b strings.Builder

	b.WriteString("Analiza los siguientes episodios de podcast y asigna a cada uno la categoría más específica y apropiada posible.\n\n")

	for i, ep := range episodes {
		fmt.Fprintf(&b, "EPISODIO %d\n", i+1)
		fmt.Fprintf(&b, "ID: %s\n", ep.ID)
		fmt.Fprintf(&b, "PODCAST: %s\n", ep.ShowName)
		fmt.Fprintf(&b, "TÍTULO: %s\n", ep.Title)
		fmt.Fprintf(&b, "DESCRIPCIÓN: %s\n\n", shared.Truncate(ep.Description, c.descriptionLimit))
	}

	remaining := c.maxCategories - len(existing)

	if len(existing) > 0 {
		fmt.Fprintf(&b, "Categorías ya existentes: \"%s\".\n", strings.Join(existing, ", "))
		b.WriteString("Prioriza reutilizar una categoría existente cuando describa bien el episodio.\n")
		if remaining <= 0 {
			b.WriteString("NO crees categorías nuevas: usa únicamente las existentes.\n")
		} else {
			fmt.Fprintf(&b, "Puedes crear como máximo %d categorías nuevas si ninguna existente encaja.\n", remaining)
		}
	} else {
		b.WriteString("No hay categorías previas: empieza desde cero.\n")
	}

	b.WriteString("\nInstrucciones:\n")
	b.WriteString("1. Asigna exactamente UNA categoría a cada episodio.\n")
	fmt.Fprintf(&b, "2. Usa como máximo %d categorías únicas en total en la respuesta.\n", c.maxCategories)
	b.WriteString("3. Usa categorías en español, específicas y descriptivas, de 3-4 palabras como máximo.\n")
	b.WriteString("4. Evita categorías demasiado amplias como \"Otro\" o \"General\".\n")
	b.WriteString("\nResponde SOLO con un objeto JSON que asocie el ID de cada episodio con su categoría, ")
	b.WriteString("por ejemplo {\"abc123\": \"Tecnología e IA\"}, sin texto adicional ni explicaciones.\n")

	return b.String()
}

// parseCategoryMapping extracts the id->category JSON object from the raw
// model response. The response is free text: code fences and surrounding
// prose are tolerated, anything without a parseable object is not.
func parseCategoryMapping(raw string) (map[string]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty response", shared.ErrMalformedResponse)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", shared.ErrMalformedResponse)
	}

	var mapping map[string]string
	if err := json.Unmarshal([]byte(s[start:end+1]), &mapping); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	return mapping, nil
}

// normalizeCategory trims, caps length and blanks out placeholder values.
// An empty result means the provider gave nothing usable for the episode.
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	switch strings.ToLower(category) {
	case "error", "unknown":
		return ""
	}
	return shared.Truncate(category, maxCategoryLength)
}
