// Package spatial holds the geometry and gain laws of 3D source placement:
// listener-relative azimuth and elevation, distance attenuation, directional
// cone attenuation and the equal-power stereo pan law.
//
// Coordinates are right-handed: with the default listener pose (forward
// -Z, up +Y), +X is to the listener's right. Azimuth is in degrees,
// 0 straight ahead and positive to the right; elevation is in degrees,
// positive above the horizontal plane.
package spatial
