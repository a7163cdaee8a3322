// Package loaders implements the renderer's file-input boundary: PLY
// mesh input and image input. The PLY reader handles binary
// little-endian files carrying vertices with optional normals and
// texture coordinates; polygon faces are fan-triangulated from their first
// vertex: (0,1,2), (0,2,3), ...
package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/specterray/pkg/core"
)

// Mesh is the PLY external-interface contract: vertices plus optional
// per-vertex normals/uvs, and triangle faces (already fan-triangulated).
type Mesh struct {
	Vertices []core.Vec3
	Normals  []core.Vec3 // nil if the file carries no normals
	UVs      []core.Vec2 // nil if the file carries no texture coordinates
	Faces    [][3]int    // vertex indices, three per triangle
}

type plyProperty struct {
	name     string
	dataType string
	isList   bool
	listType string
}

type plyHeader struct {
	format      string
	vertexCount int
	faceCount   int
	vertexProps []plyProperty
	faceProps   []plyProperty

	hasNormals bool
	hasUVs     bool
	nIdx       [3]int
	uvIdx      [2]int
}

// LoadPLY reads a binary-little-endian PLY file and returns its mesh data.
// the I/O-failure policy applies: any read/parse error is surfaced as an
// error; no partial Mesh is returned.
func LoadPLY(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	header, headerSize, err := parsePLYHeader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}
	if header.format != "binary_little_endian" {
		return nil, fmt.Errorf("unsupported PLY format: %s (only binary_little_endian is supported)", header.format)
	}

	if _, err := file.Seek(int64(headerSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to binary data: %w", err)
	}

	mesh, err := readBinaryLittleEndian(file, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return mesh, nil
}

func parsePLYHeader(file *os.File) (*plyHeader, int, error) {
	header := &plyHeader{}
	scanner := bufio.NewScanner(file)
	var bytesRead int
	var currentElement string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		bytesRead += len(scanner.Bytes()) + 1

		if line == "end_header" {
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 2 {
				header.format = parts[1]
			}
		case "element":
			if len(parts) >= 3 {
				count, err := strconv.Atoi(parts[2])
				if err != nil {
					return nil, 0, fmt.Errorf("invalid element count: %s", parts[2])
				}
				currentElement = parts[1]
				switch currentElement {
				case "vertex":
					header.vertexCount = count
				case "face":
					header.faceCount = count
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, 0, err
			}
			switch currentElement {
			case "vertex":
				header.vertexProps = append(header.vertexProps, prop)
				idx := len(header.vertexProps) - 1
				switch prop.name {
				case "nx":
					header.hasNormals, header.nIdx[0] = true, idx
				case "ny":
					header.hasNormals, header.nIdx[1] = true, idx
				case "nz":
					header.hasNormals, header.nIdx[2] = true, idx
				case "u", "s", "texture_u":
					header.hasUVs, header.uvIdx[0] = true, idx
				case "v", "t", "texture_v":
					header.hasUVs, header.uvIdx[1] = true, idx
				}
			case "face":
				header.faceProps = append(header.faceProps, prop)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading header: %w", err)
	}
	return header, bytesRead, nil
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) < 2 {
		return plyProperty{}, fmt.Errorf("invalid property definition")
	}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return plyProperty{}, fmt.Errorf("invalid list property definition")
		}
		return plyProperty{isList: true, listType: parts[1], dataType: parts[2], name: parts[3]}, nil
	}
	return plyProperty{dataType: parts[0], name: parts[1]}, nil
}

func propSize(t string) int {
	switch t {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8", "int8 ":
		return 1
	default:
		return 4
	}
}

func vertexRecordSize(props []plyProperty) int {
	size := 0
	for _, p := range props {
		size += propSize(p.dataType)
	}
	return size
}

// readScalar decodes one scalar property of the given PLY type from data at
// offset, returning its value as float64 and its byte width.
func readScalar(data []byte, offset int, dataType string) (float64, int) {
	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))), 4
	case "double", "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(data[offset:])), 8
	case "int", "int32":
		return float64(int32(binary.LittleEndian.Uint32(data[offset:]))), 4
	case "uint", "uint32":
		return float64(binary.LittleEndian.Uint32(data[offset:])), 4
	case "short", "int16":
		return float64(int16(binary.LittleEndian.Uint16(data[offset:]))), 2
	case "ushort", "uint16":
		return float64(binary.LittleEndian.Uint16(data[offset:])), 2
	case "char", "int8":
		return float64(int8(data[offset])), 1
	case "uchar", "uint8":
		return float64(data[offset]), 1
	default:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))), 4
	}
}

func readIndex(data []byte, offset int, dataType string) (int, int) {
	v, n := readScalar(data, offset, dataType)
	return int(v), n
}

// readBinaryLittleEndian reads the vertex and face element blocks that follow
// the header, building the Mesh contract and fan-triangulating any
// polygonal (>3 vertex) faces.
func readBinaryLittleEndian(r io.Reader, header *plyHeader) (*Mesh, error) {
	br := bufio.NewReader(r)
	recordSize := vertexRecordSize(header.vertexProps)
	vertexBlock := make([]byte, recordSize*header.vertexCount)
	if _, err := io.ReadFull(br, vertexBlock); err != nil {
		return nil, fmt.Errorf("failed to read vertex data: %w", err)
	}

	mesh := &Mesh{Vertices: make([]core.Vec3, header.vertexCount)}
	if header.hasNormals {
		mesh.Normals = make([]core.Vec3, header.vertexCount)
	}
	if header.hasUVs {
		mesh.UVs = make([]core.Vec2, header.vertexCount)
	}

	for i := 0; i < header.vertexCount; i++ {
		offset := i * recordSize
		propOffset := offset
		var x, y, z float64
		var nx, ny, nz float64
		var u, v float64
		for propIdx, prop := range header.vertexProps {
			val, size := readScalar(vertexBlock, propOffset, prop.dataType)
			switch prop.name {
			case "x":
				x = val
			case "y":
				y = val
			case "z":
				z = val
			}
			if header.hasNormals {
				switch propIdx {
				case header.nIdx[0]:
					nx = val
				case header.nIdx[1]:
					ny = val
				case header.nIdx[2]:
					nz = val
				}
			}
			if header.hasUVs {
				switch propIdx {
				case header.uvIdx[0]:
					u = val
				case header.uvIdx[1]:
					v = val
				}
			}
			propOffset += size
		}
		mesh.Vertices[i] = core.NewVec3(x, y, z)
		if header.hasNormals {
			mesh.Normals[i] = core.NewVec3(nx, ny, nz)
		}
		if header.hasUVs {
			mesh.UVs[i] = core.Vec2{X: u, Y: v}
		}
	}

	for f := 0; f < header.faceCount; f++ {
		indices, err := readFace(br, header.faceProps)
		if err != nil {
			return nil, fmt.Errorf("failed to read face %d: %w", f, err)
		}
		if len(indices) < 3 {
			continue // degenerate face, silently omitted
		}
		// Fan-triangulate any polygon from its first vertex: (0,1,2),
		// (0,2,3), ... For a quad this yields triangles (0,1,2) and (0,2,3).
		for k := 2; k < len(indices); k++ {
			tri := [3]int{indices[0], indices[k-1], indices[k]}
			if isDegenerateTriangle(mesh.Vertices, tri) {
				continue // near-zero-area triangle, silently omitted
			}
			mesh.Faces = append(mesh.Faces, tri)
		}
	}

	return mesh, nil
}

// isDegenerateTriangle reports whether a face's vertices are too close to
// collinear/coincident to carry a well-defined normal (the geometric
// degeneracy rule).
func isDegenerateTriangle(vertices []core.Vec3, tri [3]int) bool {
	for _, idx := range tri {
		if idx < 0 || idx >= len(vertices) {
			return true
		}
	}
	e1 := vertices[tri[1]].Subtract(vertices[tri[0]])
	e2 := vertices[tri[2]].Subtract(vertices[tri[0]])
	return e1.Cross(e2).Length() < 1e-12
}

// readFace reads one face record (a vertex-index list, plus any other
// declared face properties which are skipped) and returns its vertex
// indices.
func readFace(br *bufio.Reader, faceProps []plyProperty) ([]int, error) {
	var indices []int
	for _, prop := range faceProps {
		if !prop.isList {
			if _, err := skipScalar(br, prop.dataType); err != nil {
				return nil, err
			}
			continue
		}
		count, err := readScalarFrom(br, prop.listType)
		if err != nil {
			return nil, err
		}
		n := int(count)
		isVertexIndices := prop.name == "vertex_indices" || prop.name == "vertex_index"
		if isVertexIndices {
			indices = make([]int, n)
		}
		for i := 0; i < n; i++ {
			val, err := readScalarFrom(br, prop.dataType)
			if err != nil {
				return nil, err
			}
			if isVertexIndices {
				indices[i] = int(val)
			}
		}
	}
	return indices, nil
}

func skipScalar(br *bufio.Reader, dataType string) (int, error) {
	n := propSize(dataType)
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return 0, err
	}
	return n, nil
}

func readScalarFrom(br *bufio.Reader, dataType string) (float64, error) {
	n := propSize(dataType)
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return 0, err
	}
	v, _ := readScalar(buf, 0, dataType)
	return v, nil
}
