package metadata

// EXIF orientation values (https://exiftool.org/TagNames/EXIF.html).
//
//	1 normal              5 mirror horizontal, rotate 270 CW
//	2 mirror horizontal   6 rotate 90 CW
//	3 rotate 180          7 mirror horizontal, rotate 90 CW
//	4 mirror vertical     8 rotate 270 CW
var orientationTable = map[orientationKey]int{
	{0, false}:   1,
	{0, true}:    2,
	{180, false}: 3,
	{180, true}:  4,
	{270, true}:  5,
	{90, false}:  6,
	{90, true}:   7,
	{270, false}: 8,
}

type orientationKey struct {
	rotation int
	mirrored bool
}

// NormalizeRotation maps any multiple of 90 degrees into 0, 90, 180 or 270.
func NormalizeRotation(degrees int) int {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	return degrees - degrees%90
}

// EncodeOrientation converts a rotation and flip flags into an EXIF
// orientation value. A vertical flip equals a horizontal flip plus 180 degrees.
func EncodeOrientation(rotation int, flipHorizontal, flipVertical bool) int {
	rotation = NormalizeRotation(rotation)
	mirrored := flipHorizontal
	if flipVertical {
		mirrored = !mirrored
		rotation = NormalizeRotation(rotation + 180)
	}
	return orientationTable[orientationKey{rotation, mirrored}]
}

// DecodeOrientation converts an EXIF orientation value into rotation and flip
// flags. Unknown values decode as unrotated.
func DecodeOrientation(value int) (rotation int, flipHorizontal, flipVertical bool) {
	for key, v := range orientationTable {
		if v == value {
			return key.rotation, key.mirrored, false
		}
	}
	return 0, false, false
}
