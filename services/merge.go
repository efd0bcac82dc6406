package services

import "github.com/mrnavastar/mclaunch/util"

// MergeVersions overlays a loader descriptor on its vanilla parent. The
// result takes the loader's main class, appends loader arguments after the
// vanilla ones and lists loader libraries first. Neither input is modified.
func MergeVersions(loader util.VersionDetails, vanilla util.VersionDetails) util.VersionDetails {
	merged := vanilla
	merged.MainClass = loader.MainClass

	if loader.Arguments != nil {
		args := &util.Arguments{}
		if vanilla.Arguments != nil {
			args.Game = append(args.Game, vanilla.Arguments.Game...)
			args.Jvm = append(args.Jvm, vanilla.Arguments.Jvm...)
		}
		args.Game = append(args.Game, loader.Arguments.Game...)
		args.Jvm = append(args.Jvm, loader.Arguments.Jvm...)
		merged.Arguments = args
	}

	merged.Libraries = make([]util.Library, 0, len(loader.Libraries)+len(vanilla.Libraries))
	merged.Libraries = append(merged.Libraries, loader.Libraries...)
	merged.Libraries = append(merged.Libraries, vanilla.Libraries...)
	return merged
}
