package tech

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTechYAML = `
name: asap7
stackups:
  - name: asap7_3Ma_2Mb_2Mc_2Md
    metals:
      - name: M1
        index: 1
        direction: vertical
        pitch: 0.054
      - name: M2
        index: 2
        direction: horizontal
        pitch: 0.054
dont_use_list:
  - "*/SDF*"
  - "*/ICG*"
special_cells:
  - cell_type: tiecell
    name: TIEHIx1_ASAP7_75t_R
  - cell_type: tiecell
    name: TIELOx1_ASAP7_75t_R
  - cell_type: stdfiller
    name: FILLER_ASAP7_75t_R
    size: 1.0
`

func loadSample(t *testing.T) *Technology {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tech.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTechYAML), 0644))
	tech, err := Load(path)
	require.NoError(t, err)
	return tech
}

func TestLoad(t *testing.T) {
	tech := loadSample(t)
	assert.Equal(t, "asap7", tech.Name())
	assert.Equal(t, []string{"*/SDF*", "*/ICG*"}, tech.DontUseList())

	stackup, ok := tech.Stackup("asap7_3Ma_2Mb_2Mc_2Md")
	require.True(t, ok)
	m2, ok := stackup.Metal("M2")
	require.True(t, ok)
	assert.Equal(t, Horizontal, m2.Direction)
	assert.Equal(t, 2, m2.Index)

	_, ok = tech.Stackup("unknown")
	assert.False(t, ok)
}

func TestLoad_InvalidInputs(t *testing.T) {
	dir := t.TempDir()

	missingName := filepath.Join(dir, "noname.yml")
	require.NoError(t, os.WriteFile(missingName, []byte("stackups: []"), 0644))
	_, err := Load(missingName)
	assert.Error(t, err)

	badCell := filepath.Join(dir, "badcell.yml")
	require.NoError(t, os.WriteFile(badCell, []byte(`
name: t
special_cells:
  - cell_type: decap
    name: X
`), 0644))
	_, err = Load(badCell)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestSpecialCells(t *testing.T) {
	tech := loadSample(t)

	ties := tech.SpecialCells(TieCell)
	require.Len(t, ties, 2)
	assert.Equal(t, "TIEHIx1_ASAP7_75t_R", ties[0].Name)

	fillers := tech.SpecialCells(StdFiller)
	require.Len(t, fillers, 1)
	require.NotNil(t, fillers[0].Size)
	assert.Equal(t, 1.0, *fillers[0].Size)

	assert.Empty(t, tech.SpecialCells(EndCap))
}

func TestResolveDontUseList(t *testing.T) {
	techList := []string{"*/SDF*"}
	manual := []string{"*/DFFH*"}

	got, err := ResolveDontUseList(DontUseAuto, manual, techList)
	require.NoError(t, err)
	assert.Equal(t, techList, got)

	got, err = ResolveDontUseList(DontUseManual, manual, techList)
	require.NoError(t, err)
	assert.Equal(t, manual, got)

	got, err = ResolveDontUseList(DontUseAppend, manual, techList)
	require.NoError(t, err)
	assert.Equal(t, []string{"*/SDF*", "*/DFFH*"}, got)

	_, err = ResolveDontUseList("bogus", manual, techList)
	assert.Error(t, err)
}
