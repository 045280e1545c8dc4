package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

var monitoring = Surface{
	FromPrefix:   "/catalog/",
	ToPrefix:     "/monitoring/",
	NamePrefix:   "monitoring",
	Security:     "apikey",
	Tag:          "monitoring",
	ReplaceTag:   "catalog",
	Description:  "[MONITORING API]",
	RequireParam: "dataset_id",
}

func TestDerive_Monitoring(t *testing.T) {
	api := loadCatalog(t)

	derived, err := Derive(api.Endpoints, monitoring)
	require.NoError(t, err)
	require.Len(t, derived, 2, "only dataset operations under /catalog/ are cloned")

	d := derived[1]
	assert.Equal(t, "monitoring_get_records", d.Name)
	assert.Equal(t, "/monitoring/datasets/{dataset_id}/records", d.Path)
	assert.Equal(t, []models.SecurityRequirement{{"apikey": {}}}, d.Security)
	assert.Equal(t, []string{"monitoring"}, d.Tags)
	assert.Equal(t, "[MONITORING API] Query dataset records", d.Description)

	src, _ := api.Endpoint("get_records")
	assert.Equal(t, "/catalog/datasets/{dataset_id}/records", src.Path, "source is untouched")
	assert.Empty(t, src.Security)
	assert.Equal(t, []string{"catalog"}, src.Tags)

	d.Parameters[0].Description = "changed"
	assert.Empty(t, src.Parameters[0].Description, "clone is deep")
}

func TestDerive_Filters(t *testing.T) {
	api := loadCatalog(t)

	s := monitoring
	s.Endpoints = []string{"add_dataset_note"}
	s.Security = ""
	derived, err := Derive(api.Endpoints, s)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "monitoring_add_dataset_note", derived[0].Name)
	assert.Equal(t, []models.SecurityRequirement{{"apikey": {}}}, derived[0].Security, "source security is kept")

	_, err = Derive(api.Endpoints, Surface{FromPrefix: "catalog", ToPrefix: "/m/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from_prefix")
	assert.Contains(t, err.Error(), "name_prefix")
}

func TestDeriveAll(t *testing.T) {
	api := loadCatalog(t)

	all, err := DeriveAll(api.Endpoints, []Surface{monitoring})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, api.Endpoints, all[:3])

	_, err = DeriveAll(api.Endpoints, []Surface{monitoring, monitoring})
	assert.ErrorContains(t, err, "already exists")
}

func TestRetag(t *testing.T) {
	assert.Equal(t, []string{"m"}, retag(nil, "", "m"))
	assert.Equal(t, []string{"a", "m"}, retag([]string{"a"}, "", "m"))
	assert.Equal(t, []string{"m", "a"}, retag([]string{"c", "a", "m"}, "c", "m"))
}
