// Package sortdicom is the Composition Root for the sortdicom application.
//
// It connects the core pipeline (collect → group → write) with the
// infrastructure adapters (DICOM codec, filesystem) using the Hexagonal
// Architecture pattern.
//
// sortdicom reorganizes a flat or nested dump of scanner output into one
// directory per series, keyed by the DICOM Series Description. It is meant
// for MRI quality-assurance sessions.
//
// Features:
//
//   - **Whole or token grouping**: group by the full Series Description or by
//     one "_"-separated token of it (negative indices count from the end).
//   - **Collision-free naming**: files are numbered inside their group by
//     default; descriptive {description}_{content time} names are available.
//   - **Batch tolerant**: non-DICOM files, bad keys and failed writes are
//     counted and reported, never fatal for the rest of the batch.
//   - **Atomic writes**: each output file appears complete or not at all.
//
// Usage:
//
//	svc, err := sortdicom.New(
//		sortdicom.WithSplitIndex(0),
//		sortdicom.WithLogger(logger),
//	)
//
//	res, err := svc.Run(ctx, "./dump", "./sorted")
package sortdicom
