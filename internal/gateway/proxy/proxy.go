package proxy

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

// Upstream пересылает запросы в сервис планировщика.
type Upstream struct {
	baseURL string
	prefix  string
	client  *http.Client
}

// NewUpstream: prefix отрезается от пути перед пересылкой (/api/v1/room -> /room).
func NewUpstream(baseURL, prefix string, timeout time.Duration) *Upstream {
	return &Upstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  prefix,
		client:  &http.Client{Timeout: timeout},
	}
}

// Handler проксирует запрос на тот же путь без префикса, с query string.
func (u *Upstream) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		return u.forward(c, u.target(c))
	}
}

// Ping проверяет, что планировщик отвечает.
func (u *Upstream) Ping() error {
	resp, err := u.client.Get(u.baseURL + "/health/live")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return nil
}

func (u *Upstream) target(c fiber.Ctx) string {
	path := strings.TrimPrefix(c.Path(), u.prefix)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := u.baseURL + path
	if qs := c.Request().URI().QueryString(); len(qs) > 0 {
		target += "?" + string(qs)
	}
	return target
}

// forward проксирует любой метод с учетом multipart/raw.
func (u *Upstream) forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	contentType := c.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return u.sendRaw(c, targetURL, contentType)
	}

	return u.sendMultipart(c, targetURL)
}

func (u *Upstream) sendRaw(c fiber.Ctx, targetURL, contentType string) error {
	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return u.do(c, req)
}

func (u *Upstream) sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("[PROXY] Failed to parse multipart: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart data"})
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			if err := copyFilePart(writer, key, fileHeader); err != nil {
				log.Printf("[PROXY] Failed to copy file %q: %v", fileHeader.Filename, err)
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart data"})
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
			}
		}
	}

	if err := writer.Close(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(body.Bytes()))
	if err != nil {
		log.Printf("[PROXY] build multipart request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	return u.do(c, req)
}

func (u *Upstream) do(c fiber.Ctx, req *http.Request) error {
	if auth := c.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyFilePart(writer *multipart.Writer, key string, fileHeader *multipart.FileHeader) error {
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fileHeader.Filename))
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	}

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && key != "Content-Length" {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
