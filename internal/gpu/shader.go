//go:build !nogpu

package gpu

// combineShaderSource fills one destination plane. Each invocation produces
// one u32 word (four destination bytes) of a tightly packed plane, so no two
// invocations write the same word.
//
// Every destination byte is resolved through the plane's pattern: byte xb of
// row y belongs to pattern repetition xb / pattern_len and slot
// xb % pattern_len; the slot names the source channel and a column offset
// within the repetition. Subsampled planes scale the resulting source
// coordinates, selecting the top-left sample of each block.
//
// The four bytes are unrolled rather than looped: naga's SPIR-V backend only
// runs the first iteration of some loops.
const combineShaderSource = `
struct Params {
    src_width: u32,
    row_bytes: u32,
    rows: u32,
    pattern_len: u32,
    pixels_per_pattern: u32,
    subsample_x: u32,
    subsample_y: u32,
    channel_size: u32,
    groups_x: u32,
    total_bytes: u32,
    pad0: u32,
    pad1: u32,
    channels: vec4<u32>,
    offsets: vec4<u32>,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst: array<u32>;

fn lane(v: vec4<u32>, i: u32) -> u32 {
    if (i == 0u) {
        return v.x;
    }
    if (i == 1u) {
        return v.y;
    }
    if (i == 2u) {
        return v.z;
    }
    return v.w;
}

fn load_byte(index: u32) -> u32 {
    let word = src[index >> 2u];
    return (word >> ((index & 3u) * 8u)) & 0xffu;
}

fn sample_at(byte_index: u32) -> u32 {
    if (byte_index >= params.total_bytes) {
        return 0u;
    }
    let y = byte_index / params.row_bytes;
    let xb = byte_index % params.row_bytes;
    let rep = xb / params.pattern_len;
    let slot = xb % params.pattern_len;
    let ch_index = lane(params.channels, slot);
    let sx = (rep * params.pixels_per_pattern + lane(params.offsets, slot)) * params.subsample_x;
    let sy = y * params.subsample_y;
    return load_byte(ch_index * params.channel_size + sy * params.src_width + sx);
}

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let word_index = gid.y * params.groups_x * 64u + gid.x;
    let first = word_index * 4u;
    if (first >= params.total_bytes) {
        return;
    }
    let b0 = sample_at(first);
    let b1 = sample_at(first + 1u);
    let b2 = sample_at(first + 2u);
    let b3 = sample_at(first + 3u);
    dst[word_index] = b0 | (b1 << 8u) | (b2 << 16u) | (b3 << 24u);
}
`
