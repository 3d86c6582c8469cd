package analysis

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const shooterSource = `using UnityEngine;

public class Shooter : MonoBehaviour
{
    [SerializeField] private Health target;

    void Start()
    {
        GetComponent<Health>();
    }
}
`

const healthSource = `using UnityEngine;

public class Health : MonoBehaviour
{
    public int hitPoints;

    void Update() { }
}
`

func writeWorkspace(t *testing.T, files map[string][]byte) (string, []string) {
	t.Helper()
	root := t.TempDir()
	var paths []string
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
		paths = append(paths, path)
	}
	return root, paths
}

func testContext(workers int) *config.Context {
	actx := config.DefaultContext()
	actx.Workers = workers
	return actx
}

func names(components []*model.Component) []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, c.ClassName)
	}
	return out
}

func TestAnalyzeSkipsUnparsableFile(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"Assets/Shooter.cs": []byte(shooterSource),
		"Assets/Health.cs":  []byte(healthSource),
		"Assets/Broken.cs":  {0xff, 0xfe, 'c', 'l', 'a', 's', 's'},
	})

	res := Analyze(context.Background(), testContext(2), paths)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"Health", "Shooter"}, names(res.Components))
	assert.Len(t, res.Files, 3)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, model.DiagnosticParseFailure, res.Diagnostics[0].Kind)
	assert.Equal(t, "Broken.cs", filepath.Base(res.Diagnostics[0].File))
	assert.Len(t, res.FailedFiles(), 1)
}

func TestAnalyzeBuildsProjectModel(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"Assets/Shooter.cs": []byte(shooterSource),
		"Assets/Health.cs":  []byte(healthSource),
	})

	res := Analyze(context.Background(), testContext(4), paths)
	require.True(t, res.Success)

	shooter, ok := res.Component("Shooter")
	require.True(t, ok)
	assert.Equal(t, []string{"Health"}, shooter.DeclaredDependencies)

	kinds := make(map[model.ReferenceKind]bool)
	for _, ref := range shooter.References {
		kinds[ref.Kind] = true
	}
	assert.True(t, kinds[model.ReferenceTypedAccess])
	assert.True(t, kinds[model.ReferenceField], "field typed as another component is resolved across files")

	assert.Equal(t, []string{"Health"}, res.Graph.Dependencies("Shooter"))
	assert.Equal(t, []string{"Shooter"}, res.Graph.Dependents("Health"))
	assert.False(t, res.HasCycle)
	assert.Empty(t, res.Cycles)
	assert.Equal(t, []string{"Shooter", "Health"}, res.TopologicalOrder)

	require.Len(t, res.LifecycleFlows, 2)
	assert.Equal(t, "Health", res.LifecycleFlows[0].Component)
	assert.Equal(t, model.PhaseFrameUpdate, res.LifecycleFlows[0].Methods[0].Phase)

	_, missing := res.Component("Missing")
	assert.False(t, missing)
}

func TestAnalyzeReportsCycles(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"A.cs": []byte(`public class A : MonoBehaviour { void Start() { GetComponent<B>(); } }`),
		"B.cs": []byte(`public class B : MonoBehaviour { void Start() { GetComponent<A>(); } }`),
	})

	res := Analyze(context.Background(), testContext(2), paths)

	assert.True(t, res.HasCycle)
	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []string{"A", "B"}, res.Cycles[0].Components)
	assert.ElementsMatch(t, []string{"A", "B"}, res.TopologicalOrder)
}

func TestAnalyzeKeepsFileWithSyntaxErrors(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"Assets/Sloppy.cs": []byte("public class Sloppy : MonoBehaviour\n{\n    void Update() { int x = ; }\n}\n"),
	})

	res := Analyze(context.Background(), testContext(1), paths)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"Sloppy"}, names(res.Components))
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, model.DiagnosticSyntaxError, res.Diagnostics[0].Kind)
	assert.False(t, res.Diagnostics[0].Fatal())
	assert.Empty(t, res.FailedFiles())
}

func TestAnalyzeDuplicateNameLastPathWins(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"a/Player.cs": []byte(`public class Player : MonoBehaviour { void Awake() { } }`),
		"z/Player.cs": []byte(`public class Player : MonoBehaviour { void Update() { } }`),
	})

	res := Analyze(context.Background(), testContext(2), paths)

	require.Len(t, res.Components, 1)
	assert.Equal(t, []string{"Update"}, res.Components[0].LifecycleMethods)
	assert.Equal(t, "z", filepath.Base(filepath.Dir(res.Components[0].FilePath)))

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, model.DiagnosticDuplicateName, d.Kind)
	assert.Contains(t, d.Message, filepath.Join("a", "Player.cs"))
	assert.Contains(t, d.Message, filepath.Join("z", "Player.cs"))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"Shooter.cs": []byte(shooterSource),
		"Health.cs":  []byte(healthSource),
		"A.cs":       []byte(`public class A : MonoBehaviour { void Start() { GetComponent<Health>(); GetComponent<Shooter>(); } }`),
		"Odd.cs":     {0xc3, 0x28},
	})

	reversed := make([]string, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}

	first, err := json.Marshal(Analyze(context.Background(), testContext(1), paths))
	require.NoError(t, err)
	second, err := json.Marshal(Analyze(context.Background(), testContext(8), append(reversed, paths[0])))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))

	var doc struct {
		Graph struct {
			Adjacency        map[string][]string `json:"adjacency"`
			ReverseAdjacency map[string][]string `json:"reverseAdjacency"`
			Edges            []json.RawMessage   `json:"edges"`
		} `json:"graph"`
		Architecture struct {
			Clusters []struct {
				Components []string `json:"components"`
			} `json:"clusters"`
		} `json:"architecture"`
	}
	require.NoError(t, json.Unmarshal(first, &doc))
	assert.Equal(t, []string{"Health", "Shooter"}, doc.Graph.Adjacency["A"])
	assert.Contains(t, doc.Graph.ReverseAdjacency["Health"], "A")
	assert.NotEmpty(t, doc.Graph.Edges)
	require.NotEmpty(t, doc.Architecture.Clusters)
	assert.Subset(t, doc.Architecture.Clusters[0].Components, []string{"A", "Health", "Shooter"})
}

func TestAnalyzeEmptyInput(t *testing.T) {
	res := Analyze(context.Background(), nil, nil)

	assert.True(t, res.Success)
	assert.Empty(t, res.Components)
	assert.NotNil(t, res.Components)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.HasCycle)
	assert.Empty(t, res.TopologicalOrder)
}

func TestAnalyzeMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "Gone.cs")

	res := Analyze(context.Background(), testContext(1), []string{missing})

	assert.True(t, res.Success)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, model.DiagnosticReadFailure, res.Diagnostics[0].Kind)
}

func TestAnalyzeCanceled(t *testing.T) {
	_, paths := writeWorkspace(t, map[string][]byte{
		"Shooter.cs": []byte(shooterSource),
		"Health.cs":  []byte(healthSource),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Analyze(ctx, testContext(1), paths)
	assert.False(t, res.Success)
	assert.Len(t, res.Files, 2)
}
