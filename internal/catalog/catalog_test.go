package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/cfpgen/internal/profile"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := Default()
	names := c.Names()
	require.Len(t, names, 9)
	assert.Equal(t, "PyCon US", names[0])
	assert.Equal(t, "KubeCon", names[1])
	assert.Equal(t, "AWS re:Invent", names[2])
	assert.Equal(t, CustomName, names[len(names)-1])
	assert.True(t, c.Custom().IsCustom())
	assert.Empty(t, c.Custom().Tracks)
}

func TestLookupIgnoresCase(t *testing.T) {
	conf, ok := Default().Lookup("kubecon")
	require.True(t, ok)
	assert.Equal(t, "KubeCon", conf.Name)
	assert.True(t, conf.HasTrack("ci/cd & gitops"))
	assert.False(t, conf.SupportsFormat(profile.FormatWorkshop))
}

func TestResolve(t *testing.T) {
	c := Default()
	tests := []struct {
		name                    string
		conference, track, frmt string
		want                    Selection
		wantErr                 bool
	}{
		{name: "full", conference: "PyCon US", track: "web development", frmt: "tutorial",
			want: Selection{Conference: "PyCon US", Track: "Web Development", Format: profile.FormatTutorial}},
		{name: "default format", conference: "AWS re:Invent",
			want: Selection{Conference: "AWS re:Invent", Format: profile.FormatTalk}},
		{name: "custom accepts any theme", track: "green computing",
			want: Selection{Track: "green computing", Format: profile.FormatTalk}},
		{name: "custom by name", conference: CustomName, frmt: "workshop",
			want: Selection{Format: profile.FormatWorkshop}},
		{name: "unknown conference", conference: "NoSuchConf", wantErr: true},
		{name: "unknown track", conference: "KubeCon", track: "Cooking", wantErr: true},
		{name: "unsupported format", conference: "Strange Loop", frmt: "workshop", wantErr: true},
		{name: "unknown format", conference: "KubeCon", frmt: "keynote", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Resolve(tt.conference, tt.track, tt.frmt)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeKeepsCustomLast(t *testing.T) {
	c := Default().Merge(
		Conference{Name: "GopherCon", Tracks: []string{"Concurrency"}},
		Conference{Name: "kubecon", Tracks: []string{"Only Track"}, Formats: []profile.Format{profile.FormatLightning}},
		Conference{Name: "  "},
	)
	require.Equal(t, 10, c.Len())
	assert.Equal(t, CustomName, c.At(c.Len()-1).Name)
	assert.Equal(t, "GopherCon", c.At(c.Len()-2).Name)

	gopher, ok := c.Lookup("GopherCon")
	require.True(t, ok)
	assert.Equal(t, []profile.Format{profile.FormatTalk}, gopher.Formats)

	kube, ok := c.Lookup("KubeCon")
	require.True(t, ok)
	assert.Equal(t, []string{"Only Track"}, kube.Tracks)

	assert.Equal(t, 9, Default().Len(), "merge must not mutate the receiver")
}
