package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// ReadScene loads a scene description from a file. The format is a simple
// line-based listing of lights, camera and bounds; mesh geometry is handled by
// the external asset pipeline and referenced only through the scene bounds.
func ReadScene(filename string) (*Scene, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, filename)
}

// Parse reads a scene description from r. Supported statements:
//
//	bounds minX minY minZ maxX maxY maxZ
//	camera posX posY posZ lookX lookY lookZ fov
//	point  posX posY posZ r g b [range]
//	spot   posX posY posZ dirX dirY dirZ r g b inner outer
//	dir    dirX dirY dirZ r g b
//	area   x0 y0 z0 x1 y1 z1 x2 y2 z2 r g b
//	env    r g b
//
// Lines starting with # are comments.
func Parse(r io.Reader, name string) (*Scene, error) {
	sc := New(name)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		args, err := parseFloats(fields[1:])
		if err != nil {
			return nil, fmt.Errorf("scene: %s line %d: %v", name, lineNum, err)
		}

		switch fields[0] {
		case "bounds":
			if len(args) != 6 {
				return nil, fmt.Errorf("scene: %s line %d: bounds expects 6 values", name, lineNum)
			}
			sc.SetBounds(types.Bounds{
				Min: types.XYZ(args[0], args[1], args[2]),
				Max: types.XYZ(args[3], args[4], args[5]),
			})
		case "camera":
			if len(args) != 7 {
				return nil, fmt.Errorf("scene: %s line %d: camera expects 7 values", name, lineNum)
			}
			sc.Camera.Position = types.XYZ(args[0], args[1], args[2])
			sc.Camera.LookAt = types.XYZ(args[3], args[4], args[5])
			sc.Camera.FOV = args[6]
		case "point":
			if len(args) != 6 && len(args) != 7 {
				return nil, fmt.Errorf("scene: %s line %d: point expects 6 or 7 values", name, lineNum)
			}
			light := Light{
				Type:     PointLight,
				Position: types.XYZ(args[0], args[1], args[2]),
				Radiance: types.XYZ(args[3], args[4], args[5]),
			}
			if len(args) == 7 {
				light.Range = args[6]
			}
			sc.AddLight(light)
		case "spot":
			if len(args) != 11 {
				return nil, fmt.Errorf("scene: %s line %d: spot expects 11 values", name, lineNum)
			}
			sc.AddLight(Light{
				Type:           SpotLight,
				Position:       types.XYZ(args[0], args[1], args[2]),
				Direction:      types.XYZ(args[3], args[4], args[5]).Normalize(),
				Radiance:       types.XYZ(args[6], args[7], args[8]),
				InnerConeAngle: args[9],
				OuterConeAngle: args[10],
			})
		case "dir":
			if len(args) != 6 {
				return nil, fmt.Errorf("scene: %s line %d: dir expects 6 values", name, lineNum)
			}
			sc.AddLight(Light{
				Type:      DirectionalLight,
				Direction: types.XYZ(args[0], args[1], args[2]).Normalize(),
				Radiance:  types.XYZ(args[3], args[4], args[5]),
			})
		case "area":
			if len(args) != 12 {
				return nil, fmt.Errorf("scene: %s line %d: area expects 12 values", name, lineNum)
			}
			sc.AddLight(Light{
				Type:     AreaLight,
				V0:       types.XYZ(args[0], args[1], args[2]),
				V1:       types.XYZ(args[3], args[4], args[5]),
				V2:       types.XYZ(args[6], args[7], args[8]),
				Radiance: types.XYZ(args[9], args[10], args[11]),
			})
		case "env":
			if len(args) != 3 {
				return nil, fmt.Errorf("scene: %s line %d: env expects 3 values", name, lineNum)
			}
			sc.AddLight(Light{
				Type:     EnvironmentLight,
				Radiance: types.XYZ(args[0], args[1], args[2]),
			})
		default:
			return nil, fmt.Errorf("scene: %s line %d: unknown statement %q", name, lineNum, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if sc.Bounds().Empty() {
		return nil, fmt.Errorf("scene: %s does not define valid scene bounds", name)
	}

	// Loading counts as the initial change for every subsystem
	sc.flags = ChangeFlags{
		MeshesUpdated:         true,
		TransformsUpdated:     true,
		EnvironmentMapUpdated: sc.hasEnvironmentMap,
		CameraUpdated:         true,
		LightsUpdated:         true,
	}

	return sc, nil
}

func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", field)
		}
		out[i] = float32(v)
	}
	return out, nil
}
