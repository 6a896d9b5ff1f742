package build

import (
	"bytes"
	"fmt"
	"text/template"
)

// dockerfileTemplate is the image recipe for the PHP application. The package
// list and extension set are fixed; only the base image varies. Permissions on
// the web root and the storage subdirectory are opened up recursively because
// the application writes logs and caches there under the Apache user.
const dockerfileTemplate = `FROM {{ .BaseImage }}

RUN apt-get update \
    && apt-get install -y git curl zip unzip libpng-dev libonig-dev libxml2-dev libzip-dev \
    && rm -rf /var/lib/apt/lists/*

RUN docker-php-ext-install pdo_mysql mbstring exif pcntl bcmath gd \
    && a2enmod rewrite

COPY . {{ .WebRoot }}

WORKDIR {{ .WebRoot }}

RUN chmod -R 777 {{ .WebRoot }}{{ if .StorageDir }} \
    && chmod -R 777 {{ .WebRoot }}/{{ .StorageDir }}{{ end }}

EXPOSE 80
`

// dockerfileParams feed the Dockerfile template.
type dockerfileParams struct {
	BaseImage  string
	WebRoot    string
	StorageDir string
}

// RenderDockerfile produces the Dockerfile content for the given base image.
func RenderDockerfile(p dockerfileParams) (string, error) {
	tmpl, err := template.New("dockerfile").Parse(dockerfileTemplate)
	if err != nil {
		return "", fmt.Errorf("build: parse dockerfile template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("build: render dockerfile: %w", err)
	}
	return buf.String(), nil
}
