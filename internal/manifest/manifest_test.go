package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreservesManifestOrder(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"addons": {
			"Zulu": {"link": "https://host/zulu.zip", "target_path": "AddOns"},
			"Alpha": {"link": "https://host/alpha.zip", "target_path": "AddOns"},
			"Mike": {"link": "https://host/mike.zip", "target_path": "AddOns"}
		}
	}`)

	addons, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, addons, 3)

	names := []string{addons[0].Name, addons[1].Name, addons[2].Name}
	assert.Equal(t, []string{"Zulu", "Alpha", "Mike"}, names)
}

func TestParseFields(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"addons": {
			"QuestTracker": {
				"link": "https://host/qt.zip",
				"description": "Quest tracking overlay",
				"target_path": "Interface/AddOns",
				"delete_path": "Interface/AddOns/Legacy"
			}
		}
	}`)

	addons, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, addons, 1)

	a := addons[0]
	assert.Equal(t, "QuestTracker", a.Name)
	assert.Equal(t, "https://host/qt.zip", a.SourceURL)
	assert.Equal(t, "Quest tracking overlay", a.Description)
	assert.Equal(t, filepath.Join("Interface", "AddOns"), a.TargetPath)
	assert.Equal(t, filepath.Join("Interface", "AddOns", "Legacy"), a.DeletePath)
	assert.Equal(t, KindArchive, a.Kind)
	assert.Equal(t, filepath.Join("Interface", "AddOns", "Legacy"), a.RemovalPath())
}

func TestParseRejectsBrokenManifests(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		data     string
		wantType ErrorType
	}{
		{
			name:     "not json",
			data:     `{{{`,
			wantType: ErrTypeParsing,
		},
		{
			name:     "root is array",
			data:     `[]`,
			wantType: ErrTypeParsing,
		},
		{
			name:     "missing addons",
			data:     `{"schema_version": "1.0.0"}`,
			wantType: ErrTypeParsing,
		},
		{
			name:     "empty link",
			data:     `{"addons": {"Foo": {"link": "", "target_path": "AddOns"}}}`,
			wantType: ErrTypeValidation,
		},
		{
			name:     "empty target path",
			data:     `{"addons": {"Foo": {"link": "https://h/f.zip", "target_path": ""}}}`,
			wantType: ErrTypeValidation,
		},
		{
			name:     "parent traversal in target path",
			data:     `{"addons": {"Foo": {"link": "https://h/f.zip", "target_path": "AddOns/../../etc"}}}`,
			wantType: ErrTypeValidation,
		},
		{
			name:     "absolute target path",
			data:     `{"addons": {"Foo": {"link": "https://h/f.zip", "target_path": "/etc"}}}`,
			wantType: ErrTypeValidation,
		},
		{
			name:     "name with separator",
			data:     `{"addons": {"a/b": {"link": "https://h/f.zip", "target_path": "AddOns"}}}`,
			wantType: ErrTypeValidation,
		},
		{
			name:     "dot dot name",
			data:     `{"addons": {"..": {"link": "https://h/f.zip", "target_path": "AddOns"}}}`,
			wantType: ErrTypeValidation,
		},
		{
			name:     "unsupported schema major",
			data:     `{"schema_version": "2.0.0", "addons": {}}`,
			wantType: ErrTypeSchema,
		},
		{
			name:     "garbage schema version",
			data:     `{"schema_version": "latest", "addons": {}}`,
			wantType: ErrTypeParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)

			var mErr *Error
			require.True(t, errors.As(err, &mErr), "expected *manifest.Error, got %T", err)
			assert.Equal(t, tt.wantType, mErr.Type)
		})
	}
}

func TestParseOneBadEntryFailsWholeLoad(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"addons": {
			"Good": {"link": "https://h/good.zip", "target_path": "AddOns"},
			"Bad": {"link": "", "target_path": "AddOns"}
		}
	}`)

	_, err := Parse(data)
	require.Error(t, err, "a broken manifest must not produce a partial add-on list")
}

func TestParseSkipsUnknownTopLevelKeys(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"generated_at": "2026-08-01T00:00:00Z",
		"addons": {"Foo": {"link": "https://h/f.zip", "target_path": "AddOns"}}
	}`)

	addons, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, addons, 1)
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"addons": {
			"Foo": {"link": "https://h/a.zip", "target_path": "AddOns"},
			"Foo": {"link": "https://h/b.zip", "target_path": "AddOns"}
		}
	}`)

	_, err := Parse(data)
	require.Error(t, err)
}

func TestNormalizeTargetPathConvertsSeparators(t *testing.T) {
	t.Parallel()
	got, err := normalizeTargetPath(`Interface\AddOns`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Interface", "AddOns"), got)
}

func TestKindFromURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		url  string
		want Kind
	}{
		{"https://host/foo.zip", KindArchive},
		{"https://host/foo.tar.gz", KindArchive},
		{"https://host/foo.tgz", KindArchive},
		{"https://host/foo.tar.xz", KindArchive},
		{"https://host/foo.tar.zst", KindArchive},
		{"https://host/foo.tar.lz", KindArchive},
		{"https://host/foo.tar.bz2", KindArchive},
		{"https://host/FOO.ZIP", KindArchive},
		{"https://host/foo.zip?token=abc", KindArchive},
		{"github:nightwatch-dev/quest-tracker", KindArchive},
		{"https://host/readme.lua", KindSingleFile},
		{"https://host/font.ttf", KindSingleFile},
		{"https://host/no-extension", KindSingleFile},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindFromURL(tt.url), "url %s", tt.url)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "archive", KindArchive.String())
	assert.Equal(t, "single-file", KindSingleFile.String())
}
