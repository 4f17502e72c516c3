package output

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/notargets/fvadapt/grid"
)

// VTK cell types for the 1D, 2D and 3D grid cells
const (
	VTK_LINE  = 3
	VTK_PIXEL = 8
	VTK_VOXEL = 11
)

// Indexer maps leaf cells into the field.
type Indexer interface {
	Index(h grid.Handle) int
}

/*
VTKWriter writes the leaf cells and a cell field as ASCII VTK XML unstructured grid files named
<Name>-00042.vtu, and keeps <Name>.series listing "k file time" for every file written.
*/
type VTKWriter struct {
	Dir, Name string
	logger    *zap.Logger
}

func NewVTKWriter(dir, name string, logger *zap.Logger) *VTKWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VTKWriter{
		Dir:    dir,
		Name:   name,
		logger: logger,
	}
}

func (w *VTKWriter) FileName(k int) string {
	return fmt.Sprintf("%s-%05d.vtu", w.Name, k)
}

func (w *VTKWriter) SeriesName() string {
	return filepath.Join(w.Dir, w.Name+".series")
}

// Write stores output number k of field c at time t. Output 0 restarts the series file.
func (w *VTKWriter) Write(g *grid.Grid, mapper Indexer, c []float64, k int, t float64) (err error) {
	if w.Dir != "" {
		if err = os.MkdirAll(w.Dir, 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
	}
	var (
		fname = w.FileName(k)
		data  []byte
	)
	if data, err = xml.MarshalIndent(newVTKFile(g, mapper, c), "", "  "); err != nil {
		return fmt.Errorf("unable to encode %s: %w", fname, err)
	}
	data = append([]byte(xml.Header), data...)
	if err = os.WriteFile(filepath.Join(w.Dir, fname), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("unable to write %s: %w", fname, err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if k == 0 {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	var f *os.File
	if f, err = os.OpenFile(w.SeriesName(), flags, 0644); err != nil {
		return fmt.Errorf("unable to open series file: %w", err)
	}
	defer f.Close()
	if _, err = fmt.Fprintf(f, "%d %s %g\n", k, fname, t); err != nil {
		return fmt.Errorf("unable to write series file: %w", err)
	}
	w.logger.Debug("wrote output", zap.String("file", fname), zap.Int("k", k), zap.Float64("t", t))
	return
}

type vtkFile struct {
	XMLName   xml.Name `xml:"VTKFile"`
	Type      string   `xml:"type,attr"`
	Version   string   `xml:"version,attr"`
	ByteOrder string   `xml:"byte_order,attr"`
	Piece     vtkPiece `xml:"UnstructuredGrid>Piece"`
}

type vtkPiece struct {
	NumberOfPoints int            `xml:"NumberOfPoints,attr"`
	NumberOfCells  int            `xml:"NumberOfCells,attr"`
	CellData       vtkCellData    `xml:"CellData"`
	Points         vtkDataArray   `xml:"Points>DataArray"`
	Cells          []vtkDataArray `xml:"Cells>DataArray"`
}

type vtkCellData struct {
	Scalars string       `xml:"Scalars,attr"`
	Array   vtkDataArray `xml:"DataArray"`
}

type vtkDataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr,omitempty"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr,omitempty"`
	Format             string `xml:"format,attr"`
	Data               string `xml:",chardata"`
}

func newVTKFile(g *grid.Grid, mapper Indexer, c []float64) *vtkFile {
	var (
		leaves   = g.LeafCells()
		nc       = 1 << g.Dim
		cellType = [...]int{VTK_LINE, VTK_PIXEL, VTK_VOXEL}[g.Dim-1]
		points   strings.Builder
		conn     strings.Builder
		offsets  strings.Builder
		types    strings.Builder
		values   strings.Builder
	)
	for n, h := range leaves {
		for b, x := range g.Corners(h) {
			fmt.Fprintf(&points, "%g %g %g\n", x.X, x.Y, x.Z)
			conn.WriteString(strconv.Itoa(n*nc + b))
			conn.WriteByte(' ')
		}
		conn.WriteByte('\n')
		offsets.WriteString(strconv.Itoa((n + 1) * nc))
		offsets.WriteByte(' ')
		types.WriteString(strconv.Itoa(cellType))
		types.WriteByte(' ')
		values.WriteString(strconv.FormatFloat(c[mapper.Index(h)], 'g', -1, 64))
		values.WriteByte('\n')
	}
	return &vtkFile{
		Type:      "UnstructuredGrid",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		Piece: vtkPiece{
			NumberOfPoints: len(leaves) * nc,
			NumberOfCells:  len(leaves),
			CellData: vtkCellData{
				Scalars: "celldata",
				Array: vtkDataArray{Type: "Float64", Name: "celldata", NumberOfComponents: 1,
					Format: "ascii", Data: values.String()},
			},
			Points: vtkDataArray{Type: "Float64", NumberOfComponents: 3, Format: "ascii", Data: points.String()},
			Cells: []vtkDataArray{
				{Type: "Int32", Name: "connectivity", Format: "ascii", Data: conn.String()},
				{Type: "Int32", Name: "offsets", Format: "ascii", Data: offsets.String()},
				{Type: "UInt8", Name: "types", Format: "ascii", Data: types.String()},
			},
		},
	}
}
