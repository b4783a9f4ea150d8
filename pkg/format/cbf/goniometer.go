package cbf

import (
	"strconv"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// equipmentGoniometer marks axis loop rows that belong to the goniometer
const equipmentGoniometer = "goniometer"

// goniometerFromDocument builds a goniometer from the imgCIF _axis and
// _diffrn_scan_axis loops. Axes are chained by their depends_on values
// starting from ".", then reversed so they run crystal-outward. The one
// axis with a non-zero angle_increment is the scan axis. A single axis
// yields a plain goniometer, more than one a multi-axis goniometer.
func goniometerFromDocument(doc *Document) (model.GoniometerModel, error) {
	axisLoop := doc.Loop("_axis.id", "_axis.equipment",
		"_axis.vector[1]", "_axis.vector[2]", "_axis.vector[3]", "_axis.depends_on")
	if axisLoop == nil {
		return nil, errors.New(errors.ErrHeaderParse, "no usable _axis loop in CBF header")
	}

	ids, _ := axisLoop.Column("_axis.id")
	equipment, _ := axisLoop.Column("_axis.equipment")
	v1, _ := axisLoop.Column("_axis.vector[1]")
	v2, _ := axisLoop.Column("_axis.vector[2]")
	v3, _ := axisLoop.Column("_axis.vector[3]")
	dependsOn, _ := axisLoop.Column("_axis.depends_on")

	axisVectors := make(map[string]model.Vec3)
	dependants := make(map[string]string)
	for i := range ids {
		if equipment[i] != equipmentGoniometer {
			continue
		}
		var vec model.Vec3
		for j, s := range []string{v1[i], v2[i], v3[i]} {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrHeaderParse,
					"bad axis vector component %q for axis %s", s, ids[i])
			}
			vec[j] = f
		}
		axisVectors[ids[i]] = vec
		dependants[dependsOn[i]] = ids[i]
	}
	if len(axisVectors) == 0 {
		return nil, errors.New(errors.ErrHeaderParse, "no goniometer axes in _axis loop")
	}

	scanLoop := doc.Loop("_diffrn_scan_axis.axis_id",
		"_diffrn_scan_axis.angle_start", "_diffrn_scan_axis.angle_increment")
	if scanLoop == nil {
		return nil, errors.New(errors.ErrHeaderParse, "no usable _diffrn_scan_axis loop in CBF header")
	}

	scanIDs, _ := scanLoop.Column("_diffrn_scan_axis.axis_id")
	starts, _ := scanLoop.Column("_diffrn_scan_axis.angle_start")
	increments, _ := scanLoop.Column("_diffrn_scan_axis.angle_increment")

	angles := make(map[string]float64)
	scanAxis := ""
	for i := range scanIDs {
		id := scanIDs[i]
		if _, ok := axisVectors[id]; !ok {
			continue
		}
		start, err := strconv.ParseFloat(starts[i], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrHeaderParse, "bad angle_start %q for axis %s", starts[i], id)
		}
		increment, err := strconv.ParseFloat(increments[i], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrHeaderParse, "bad angle_increment %q for axis %s", increments[i], id)
		}
		angles[id] = start
		if increment != 0 {
			if scanAxis != "" {
				return nil, errors.New(errors.ErrHeaderParse,
					"more than one goniometer axis has a non-zero angle_increment")
			}
			scanAxis = id
		}
	}
	if len(angles) != len(axisVectors) {
		return nil, errors.Newf(errors.ErrHeaderParse,
			"%d goniometer axes in the _axis loop but %d in _diffrn_scan_axis",
			len(axisVectors), len(angles))
	}

	// chain from the root, then reverse into crystal-outward order
	var ordered []string
	for axis := dependants["."]; axis != "" && len(ordered) <= len(axisVectors); axis = dependants[axis] {
		ordered = append(ordered, axis)
	}
	if len(ordered) != len(axisVectors) {
		return nil, errors.New(errors.ErrHeaderParse, "goniometer axis depends_on chain is broken")
	}
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	if len(ordered) == 1 {
		return model.NewKnownAxisGoniometer(axisVectors[ordered[0]])
	}
	if scanAxis == "" {
		return nil, errors.New(errors.ErrHeaderParse,
			"none of the goniometer axes has a non-zero angle_increment")
	}

	axes := make([]model.Vec3, len(ordered))
	orderedAngles := make([]float64, len(ordered))
	for i, id := range ordered {
		axes[i] = axisVectors[id]
		orderedAngles[i] = angles[id]
	}
	scanIdx := 0
	for i, id := range ordered {
		if id == scanAxis {
			scanIdx = i
			break
		}
	}
	return model.NewMultiAxisGoniometer(axes, orderedAngles, ordered, scanIdx)
}
