package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const urbanScenarioYAML = `
name: rooftops
frequency_mhz: 13000
tx:
  id: north
  position: {x: 0, y: 30, z: 0}
  gain_dbi: 18
rx:
  id: south
  position: {x: 3000, y: 20, z: 4000}
  gain_dbi: 18
obstacles:
  - position: {x: 1500, y: 0, z: 2000}
    height_m: 5
    width_m: 20
`

func TestLoadScenarioAppliesDefaults(t *testing.T) {
	s, err := LoadScenario(strings.NewReader(urbanScenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "rooftops", s.Name)
	assert.Equal(t, DefaultTxPowerDbm, s.TxPowerDbm)
	assert.Equal(t, DefaultReliabilityPercent, s.ReliabilityPercent)
	assert.Equal(t, ClimateTemperate, s.Climate)
	require.Len(t, s.Obstacles, 1)
	assert.Equal(t, "obstacle-0", s.Obstacles[0].ID)
	assert.Equal(t, Vec3{X: 1500, Z: 2000}, s.Obstacles[0].Position)
}

func TestLoadScenarioKeepsExplicitZeros(t *testing.T) {
	doc := `{"frequency_mhz": 2400, "tx": {"position": {"x": 0}}, "rx": {"position": {"x": 100}}, "tx_power_dbm": 0, "reliability_percent": 0, "climate": "arid"}`
	s, err := LoadScenario(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Zero(t, s.TxPowerDbm)
	assert.Zero(t, s.ReliabilityPercent)
	assert.Equal(t, ClimateArid, s.Climate)
	assert.Empty(t, s.Obstacles)
}

func TestLoadScenarioErrors(t *testing.T) {
	_, err := LoadScenario(strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadScenario(strings.NewReader("frequency_mhz: 2400\nantenna_count: 2\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = LoadScenario(strings.NewReader("frequency_mhz: 2400\nclimate: polar\n"))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestScenarioLinkParameters(t *testing.T) {
	s, err := LoadScenario(strings.NewReader(urbanScenarioYAML))
	require.NoError(t, err)

	p, err := s.LinkParameters()
	require.NoError(t, err)
	assert.InDelta(t, 5000, p.DistanceM, 1e-9)
	assert.Equal(t, 30.0, p.TxHeightM)
	assert.Equal(t, 20.0, p.RxHeightM)
	assert.Equal(t, 18.0, p.TxGainDbi)
	assert.Equal(t, 18.0, p.RxGainDbi)
}

func TestAnalyzeScenarioUrban(t *testing.T) {
	s, err := LoadScenario(strings.NewReader(urbanScenarioYAML))
	require.NoError(t, err)

	a, err := AnalyzeScenario(s)
	require.NoError(t, err)

	assert.InDelta(t, 128.70605035474048, a.Budget.FreeSpaceLossDb, 1e-9)
	assert.InDelta(t, -4.2060503547404835, a.Budget.SystemMarginDb, 1e-9)

	require.Len(t, a.Obstacles, 1)
	o := a.Obstacles[0]
	assert.InDelta(t, 2500, o.DistanceFromTxM, 1e-9)
	assert.InDelta(t, 2500, o.DistanceToRxM, 1e-9)
	assert.InDelta(t, 5.369003434960289, o.FresnelRadiusM, 1e-9)
	assert.InDelta(t, 15.348176044841466, o.DiffractionLossDb, 1e-9)
	assert.True(t, o.Intruding)

	assert.InDelta(t, -4.2060503547404835-15.348176044841466, a.EffectiveMarginDb, 1e-9)
	assert.Equal(t, LinkQualityDown, a.Quality)
	assert.False(t, a.Viable)
	assert.Equal(t, s.Tx.Position, a.Path.Tx)
}

func TestAnalyzeScenarioCoincidentAntennas(t *testing.T) {
	s := Scenario{
		FrequencyMHz: 2400,
		Tx:           Antenna{ID: "a", Position: Vec3{X: 10, Y: 5, Z: 10}},
		Rx:           Antenna{ID: "b", Position: Vec3{X: 10, Y: 50, Z: 10}},
	}
	_, err := AnalyzeScenario(s)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	s.FrequencyMHz = 0
	_, err = AnalyzeScenario(s)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestHorizontalDistanceIgnoresHeight(t *testing.T) {
	a := Vec3{X: 0, Y: 10, Z: 0}
	b := Vec3{X: 3, Y: 500, Z: 4}
	assert.Equal(t, 5.0, HorizontalDistance(a, b))
	assert.Equal(t, HorizontalDistance(a, b), HorizontalDistance(b, a))
	assert.Greater(t, a.DistanceTo(b), 5.0)
}
