package fargate

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"text/template"

	"sigs.k8s.io/yaml"
)

// taskDefTemplate is the Fargate task definition, authored as YAML and
// converted to the JSON document register-task-definition expects. Values are
// double-quoted with JSON escaping, so passwords with YAML-special characters
// survive.
const taskDefTemplate = `family: {{ .Family }}
networkMode: awsvpc
requiresCompatibilities:
  - FARGATE
cpu: "{{ .CPU }}"
memory: "{{ .Memory }}"
{{- if .ExecutionRoleARN }}
executionRoleArn: {{ .ExecutionRoleARN }}
{{- end }}
{{- if .TaskRoleARN }}
taskRoleArn: {{ .TaskRoleARN }}
{{- end }}
containerDefinitions:
  - name: {{ .ContainerName }}
    image: {{ quote .Image }}
    essential: true
    portMappings:
      - containerPort: 80
        protocol: tcp
{{- if .Environment }}
    environment:
{{- range .Environment }}
      - name: {{ quote .Name }}
        value: {{ quote .Value }}
{{- end }}
{{- end }}
{{- if .LogGroup }}
    logConfiguration:
      logDriver: awslogs
      options:
        awslogs-group: {{ quote .LogGroup }}
        awslogs-region: {{ .Region }}
        awslogs-stream-prefix: {{ .ContainerName }}
        awslogs-create-group: "true"
{{- end }}
`

// EnvVar is one runtime environment entry for the container.
type EnvVar struct {
	Name  string
	Value string
}

// TaskDef feeds the task definition template.
type TaskDef struct {
	Family           string
	CPU              string
	Memory           string
	Region           string
	ExecutionRoleARN string
	TaskRoleARN      string
	ContainerName    string
	Image            string
	LogGroup         string
	Environment      []EnvVar
}

// EnvFromValues turns a value set into a sorted environment list, so rendered
// task definitions are stable across runs.
func EnvFromValues(values map[string]string) []EnvVar {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]EnvVar, 0, len(keys))
	for _, k := range keys {
		env = append(env, EnvVar{Name: k, Value: values[k]})
	}
	return env
}

// RenderTaskDefinition produces the register-task-definition JSON input.
func RenderTaskDefinition(p TaskDef) (string, error) {
	funcMap := template.FuncMap{"quote": strconv.Quote}
	tmpl, err := template.New("taskdef").Funcs(funcMap).Parse(taskDefTemplate)
	if err != nil {
		return "", fmt.Errorf("fargate: parse task definition template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("fargate: render task definition: %w", err)
	}
	jsonDoc, err := yaml.YAMLToJSON(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("fargate: task definition is not valid yaml: %w", err)
	}
	return string(jsonDoc), nil
}
