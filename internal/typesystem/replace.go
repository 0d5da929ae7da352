package typesystem

// ReplaceParams replaces generic parameters by name. It instantiates the
// signature of a generic impl with fresh inference variables.
func ReplaceParams(t Type, replacements map[string]Type) Type {
	if t == nil || len(replacements) == 0 {
		return t
	}
	switch typ := t.(type) {
	case TParam:
		if r, ok := replacements[typ.Name]; ok {
			return r
		}
		return typ
	case TApp:
		return TApp{
			Constructor: ReplaceParams(typ.Constructor, replacements),
			Args:        replaceAll(typ.Args, replacements),
		}
	case TRef:
		return TRef{Elem: ReplaceParams(typ.Elem, replacements), Mutable: typ.Mutable}
	case TTuple:
		if len(typ.Elements) == 0 {
			return typ
		}
		return TTuple{Elements: replaceAll(typ.Elements, replacements)}
	case TArray:
		return TArray{Elem: ReplaceParams(typ.Elem, replacements), Len: typ.Len}
	case TSimd:
		return TSimd{Elem: ReplaceParams(typ.Elem, replacements), Lanes: typ.Lanes}
	case TFunc:
		return TFunc{
			Params:     replaceAll(typ.Params, replacements),
			ReturnType: ReplaceParams(typ.ReturnType, replacements),
		}
	case TFnDef:
		return TFnDef{
			Name:       typ.Name,
			Params:     replaceAll(typ.Params, replacements),
			ReturnType: ReplaceParams(typ.ReturnType, replacements),
		}
	default:
		return t
	}
}

func replaceAll(ts []Type, replacements map[string]Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = ReplaceParams(t, replacements)
	}
	return out
}
