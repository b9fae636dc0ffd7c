package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/job-applier/internal/schemas"
	"github.com/jonathan/job-applier/internal/types"
)

// JobsSchema is the schema a jobs file is checked against when it can be
// found from the working directory.
const JobsSchema = "schemas/jobs.schema.json"

// JobsFile is the batch input format.
type JobsFile struct {
	Jobs []types.Job `json:"jobs"`
}

// LoadJobs reads and validates a jobs file.
func LoadJobs(path string) ([]types.Job, error) {
	if schemaPath := schemas.ResolveSchemaPath(JobsSchema); schemaPath != "" {
		if err := schemas.ValidateJSON(schemaPath, path); err != nil {
			return nil, fmt.Errorf("jobs file %s: %w", path, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}
	var file JobsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Jobs))
	for i := range file.Jobs {
		job := &file.Jobs[i]
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("job %d in %s: %w", i, path, err)
		}
		key := job.Board + "/" + job.ID
		if seen[key] {
			return nil, fmt.Errorf("job %s listed twice in %s", job.ID, path)
		}
		seen[key] = true
	}
	return file.Jobs, nil
}
