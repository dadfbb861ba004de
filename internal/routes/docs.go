package routes

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/config"
	"github.com/gofiber/fiber/v2"
)

type docsPageData struct {
	Title    string
	LoadedAt string
	Spec     string
}

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { font-family: ui-sans-serif, system-ui, sans-serif; margin: 2rem auto; max-width: 52rem; padding: 0 1rem; color: #1f2430; }
    h1 { font-size: 1.5rem; }
    code, pre { background: #f3f4f6; border-radius: 4px; }
    pre { padding: 1rem; overflow-x: auto; font-size: 0.85rem; }
    .meta { color: #6b7280; font-size: 0.85rem; }
    a.button { display: inline-block; margin: 0.5rem 0.5rem 0.5rem 0; padding: 0.4rem 0.8rem; background: #2563eb; color: #fff; border-radius: 6px; text-decoration: none; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p class="meta">Rendered {{.LoadedAt}}. Development-only surface.</p>
  <p>The OpenAPI spec is served from the same origin at <code>/docs/openapi.yaml</code>.</p>
  <p>
    <a class="button" href="/docs/openapi.yaml">Open Raw Spec</a>
    <a class="button" href="/docs/openapi.yaml" download="openapi.yaml">Download YAML</a>
  </p>
  <pre>{{.Spec}}</pre>
</body>
</html>`

const openAPISpecYAML = `openapi: 3.0.3
info:
  title: Expert-Talk API
  description: Timed, paid expert consultation sessions with live chat.
  version: 1.0.0
paths:
  /health:
    get:
      summary: Liveness probe
  /api/auth/register:
    post:
      summary: Register a user or expert account
  /api/auth/login:
    post:
      summary: Exchange credentials for a JWT and mark the account online
  /api/auth/logout:
    post:
      summary: Mark the account offline
  /api/auth/me:
    get:
      summary: Current account profile
  /api/v1/categories:
    get:
      summary: List expertise categories
  /api/v1/experts:
    get:
      summary: List experts with effective availability, optionally by category
  /api/v1/experts/availability:
    patch:
      summary: Set the calling expert's availability flag
  /api/v1/experts/earnings:
    get:
      summary: Total earnings of the calling expert
  /api/v1/sessions:
    post:
      summary: Open a consultation session against an available expert
    get:
      summary: List the caller's sessions with last message and unread count
  /api/v1/sessions/{id}:
    get:
      summary: Live session view with remaining budget, expiring it when due
  /api/v1/sessions/{id}/end:
    post:
      summary: Complete a session and settle charges, idempotently
  /api/v1/sessions/{id}/messages:
    get:
      summary: Session transcript, marking counterpart messages read
    post:
      summary: Send a message into an active session
  /api/v1/payments/order:
    post:
      summary: Create a pending payment order
  /api/v1/payments/order/{orderId}/confirm:
    post:
      summary: Confirm a pending order as paid, idempotently
  /api/v1/payments:
    get:
      summary: List the caller's payments
  /api/v1/ws:
    get:
      summary: WebSocket upgrade for live chat and session-ended events
components:
  securitySchemes:
    bearerAuth:
      type: http
      scheme: bearer
      bearerFormat: JWT
security:
  - bearerAuth: []
`

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	pageData := docsPageData{
		Title:    "Expert-Talk API Docs",
		LoadedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:     openAPISpecYAML,
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).SendString(openAPISpecYAML)
	})

	return nil
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
