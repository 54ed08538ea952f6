package policy_merging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveServiceAccount(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
		{Email: "sa2@proj.iam.gserviceaccount.com", UniqueID: "5678"},
	}

	t.Run("directory hit", func(t *testing.T) {
		resolution := ResolveServiceAccount("sa2@proj.iam.gserviceaccount.com", directory)
		assert.Equal(t, ResolutionManaged, resolution.Kind)
		assert.Equal(t, "5678", resolution.UniqueID)
	})

	t.Run("first match wins", func(t *testing.T) {
		duplicated := append(directory, ServiceAccountRecord{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "9999"})
		resolution := ResolveServiceAccount("sa1@proj.iam.gserviceaccount.com", duplicated)
		assert.Equal(t, "1234", resolution.UniqueID)
	})

	t.Run("miss is unmanaged, not an error", func(t *testing.T) {
		resolution := ResolveServiceAccount("agent@gcp-sa-something.iam.gserviceaccount.com", directory)
		assert.Equal(t, ResolutionUnmanaged, resolution.Kind)
		assert.Empty(t, resolution.UniqueID)
	})

	t.Run("empty directory", func(t *testing.T) {
		resolution := ResolveServiceAccount("sa1@proj.iam.gserviceaccount.com", nil)
		assert.Equal(t, ResolutionUnmanaged, resolution.Kind)
	})
}
