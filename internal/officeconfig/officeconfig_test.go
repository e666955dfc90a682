package officeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNSW/customs/internal/customs"
)

const sample = `
[[office]]
id = "6f1c1f7e-3f4b-4d8e-9a55-1b2c3d4e5f60"

[office.profile]
name = "Riga Freeport"
competence = "sea cargo"
email = "port@customs.example"

[office.profile.location]
country = "LV"
region = "Riga"
city = "Riga"
timezone = "Europe/Riga"

[office.profile.work_hours]
open = "08:00"
close = "18:00"

[office.params]
banned_import_products = ["ivory"]
banned_export_origins = ["XX"]

[office.params.fee]
kind = "PROGRESSIVE_FLAT"
thresholds = [50.0, 100.0]
fees = [5.0, 10.0]

[[office.inspector]]
id = "0d7e8a62-8a43-4c1e-b7a4-2a3b4c5d6e7f"
name = "Ivan"
rank = "Lieutenant"
post = "Inspector"

[[office.operator]]
name = "Anna"
post = "Clerk"

[[office]]
[office.profile]
name = "Valga Border"
`

func TestParseAndBuild(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Offices, 2)

	offices, err := f.Build()
	require.NoError(t, err)
	require.Len(t, offices, 2)

	riga := offices[0]
	assert.Equal(t, "6f1c1f7e-3f4b-4d8e-9a55-1b2c3d4e5f60", riga.ID().String())
	profile := riga.Profile()
	assert.Equal(t, "Riga Freeport", profile.Name)
	require.NotNil(t, profile.Location)
	assert.Equal(t, "Europe/Riga", profile.Location.Timezone)
	assert.Equal(t, "08:00", profile.WorkHours.Open)

	params := riga.Params()
	assert.Equal(t, customs.FeeProgressiveFlat, params.Fee.Kind)
	assert.Equal(t, 10.0, params.Fee.Calculate(60))
	assert.Equal(t, []string{"ivory"}, params.BannedImportProducts)

	require.Len(t, riga.Inspectors(), 1)
	assert.Equal(t, "Ivan", riga.Inspectors()[0].Name())
	require.Len(t, riga.Operators(), 1)

	valga := offices[1]
	assert.Equal(t, customs.DefaultWorkHours, *valga.Profile().WorkHours)
	assert.Equal(t, 0.0, valga.Params().Fee.Calculate(100))
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"Empty":        ``,
		"Bad ID":       "[[office]]\nid = \"nope\"\n",
		"Bad Hours":    "[[office]]\n[office.profile.work_hours]\nopen = \"20:00\"\nclose = \"09:00\"\n",
		"Bad Fee":      "[[office]]\n[office.params.fee]\nkind = \"PROGRESSIVE_FLAT\"\nthresholds = [1.0]\n",
		"Nameless":     "[[office]]\n[[office.inspector]]\nrank = \"Major\"\n",
		"Duplicate ID": "[[office]]\nid = \"6f1c1f7e-3f4b-4d8e-9a55-1b2c3d4e5f60\"\n[[office]]\nid = \"6f1c1f7e-3f4b-4d8e-9a55-1b2c3d4e5f60\"\n",
		"Unknown Zone": "[[office]]\n[office.profile.location]\ntimezone = \"Mars/Olympus\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offices.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Offices, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
