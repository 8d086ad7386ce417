// Package swagger serves the embedded restock-watch OpenAPI contract and a
// Swagger UI page pointing at it.
package swagger

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/restock-watch/api-contract"
)

const (
	UIPath   = "/docs"
	SpecPath = "/docs/restock-watch.openapi.yml"

	swaggerUIVersion = "5.29.3"
)

func Register(r chi.Router) {
	page := []byte(uiPage(SpecPath))
	spec := apicontract.GetSpecBytes()

	r.Get(UIPath, serveBytes("text/html; charset=utf-8", page))
	r.Get(SpecPath, serveBytes("application/yaml", spec))
}

func serveBytes(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func uiPage(specPath string) string {
	const cdn = "https://unpkg.com/swagger-ui-dist@" + swaggerUIVersion
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>restock-watch API</title>
  <link rel="stylesheet" href="%[1]s/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="%[1]s/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({ url: '%[2]s', dom_id: '#swagger-ui', deepLinking: true });
  };
</script>
</body>
</html>
`, cdn, specPath)
}
