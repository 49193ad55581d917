//go:build windows

// Package webgpu provides embedded WGSL compute shaders for region pooling.
package webgpu

// WGSL compute shaders for region pooling.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// roiAlignShader pools one output element per thread. Each thread resolves
// its (region, channel, bin row, bin column) from the flat index, rebuilds
// the region's sampling grid, and averages the bilinear samples of its bin.
//
// The coordinate rules mirror the host engine: samples outside [-1, dim]
// contribute zero, in-range coordinates clamp into [0, dim-1], and the four
// lattice neighbors collapse onto the boundary pixel at the edges.
const roiAlignShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> rois: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;

struct Params {
    channels: u32,
    height: u32,
    width: u32,
    pooled_h: u32,
    pooled_w: u32,
    num_rois: u32,
    sampling_ratio: i32,
    total: u32,
    scale_h: f32,
    scale_w: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

fn bilinear_sample(plane_offset: u32, y_in: f32, x_in: f32) -> f32 {
    if (y_in < -1.0 || y_in > f32(params.height) || x_in < -1.0 || x_in > f32(params.width)) {
        return 0.0;
    }

    var y = max(y_in, 0.0);
    var x = max(x_in, 0.0);

    var y_low = u32(y);
    var x_low = u32(x);
    var y_high: u32;
    var x_high: u32;

    if (y_low >= params.height - 1u) {
        y_low = params.height - 1u;
        y_high = y_low;
        y = f32(y_low);
    } else {
        y_high = y_low + 1u;
    }
    if (x_low >= params.width - 1u) {
        x_low = params.width - 1u;
        x_high = x_low;
        x = f32(x_low);
    } else {
        x_high = x_low + 1u;
    }

    let ly = y - f32(y_low);
    let lx = x - f32(x_low);
    let hy = 1.0 - ly;
    let hx = 1.0 - lx;

    let v1 = input[plane_offset + y_low * params.width + x_low];
    let v2 = input[plane_offset + y_low * params.width + x_high];
    let v3 = input[plane_offset + y_high * params.width + x_low];
    let v4 = input[plane_offset + y_high * params.width + x_high];

    return hy * hx * v1 + hy * lx * v2 + ly * hx * v3 + ly * lx * v4;
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.total) {
        return;
    }

    // idx = ((r * channels + c) * pooled_h + ph) * pooled_w + pw
    let pw = idx % params.pooled_w;
    let ph = (idx / params.pooled_w) % params.pooled_h;
    let c = (idx / (params.pooled_w * params.pooled_h)) % params.channels;
    let r = idx / (params.pooled_w * params.pooled_h * params.channels);

    let roi_offset = r * 5u;
    let batch = u32(rois[roi_offset]);
    let start_w = rois[roi_offset + 1u] * params.scale_w;
    let start_h = rois[roi_offset + 2u] * params.scale_h;
    let end_w = rois[roi_offset + 3u] * params.scale_w;
    let end_h = rois[roi_offset + 4u] * params.scale_h;

    // Minimum box size of 1.0 so no bin degenerates to zero extent.
    let roi_w = max(end_w - start_w, 1.0);
    let roi_h = max(end_h - start_h, 1.0);
    let bin_h = roi_h / f32(params.pooled_h);
    let bin_w = roi_w / f32(params.pooled_w);

    var grid_h: u32;
    var grid_w: u32;
    if (params.sampling_ratio > 0) {
        grid_h = u32(params.sampling_ratio);
        grid_w = u32(params.sampling_ratio);
    } else {
        grid_h = max(u32(ceil(bin_h)), 1u);
        grid_w = max(u32(ceil(bin_w)), 1u);
    }

    let plane_offset = (batch * params.channels + c) * params.height * params.width;

    var sum = 0.0;
    for (var iy = 0u; iy < grid_h; iy = iy + 1u) {
        let y = start_h + f32(ph) * bin_h + (f32(iy) + 0.5) * bin_h / f32(grid_h);
        for (var ix = 0u; ix < grid_w; ix = ix + 1u) {
            let x = start_w + f32(pw) * bin_w + (f32(ix) + 0.5) * bin_w / f32(grid_w);
            sum = sum + bilinear_sample(plane_offset, y, x);
        }
    }

    output[idx] = sum / f32(grid_h * grid_w);
}
`

// roiAlignBackwardShader scatters one incoming-gradient element per thread.
// Threads from different regions can hit the same input pixel, so the
// gradient buffer is an array of atomic u32 bit patterns and every
// accumulation goes through a compare-exchange loop. WGSL has no atomic<f32>;
// the loop bitcasts between f32 values and their u32 representations.
const roiAlignBackwardShader = `
@group(0) @binding(0) var<storage, read> grad_output: array<f32>;
@group(0) @binding(1) var<storage, read> rois: array<f32>;
@group(0) @binding(2) var<storage, read_write> grad_input: array<atomic<u32>>;

struct Params {
    channels: u32,
    height: u32,
    width: u32,
    pooled_h: u32,
    pooled_w: u32,
    num_rois: u32,
    sampling_ratio: i32,
    total: u32,
    scale_h: f32,
    scale_w: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

fn atomic_add_f32(index: u32, value: f32) {
    if (value == 0.0) {
        return;
    }
    var old = atomicLoad(&grad_input[index]);
    loop {
        let updated = bitcast<u32>(bitcast<f32>(old) + value);
        let result = atomicCompareExchangeWeak(&grad_input[index], old, updated);
        if (result.exchanged) {
            return;
        }
        old = result.old_value;
    }
}

fn bilinear_scatter(plane_offset: u32, y_in: f32, x_in: f32, grad: f32) {
    if (y_in < -1.0 || y_in > f32(params.height) || x_in < -1.0 || x_in > f32(params.width)) {
        return;
    }

    var y = max(y_in, 0.0);
    var x = max(x_in, 0.0);

    var y_low = u32(y);
    var x_low = u32(x);
    var y_high: u32;
    var x_high: u32;

    if (y_low >= params.height - 1u) {
        y_low = params.height - 1u;
        y_high = y_low;
        y = f32(y_low);
    } else {
        y_high = y_low + 1u;
    }
    if (x_low >= params.width - 1u) {
        x_low = params.width - 1u;
        x_high = x_low;
        x = f32(x_low);
    } else {
        x_high = x_low + 1u;
    }

    let ly = y - f32(y_low);
    let lx = x - f32(x_low);
    let hy = 1.0 - ly;
    let hx = 1.0 - lx;

    atomic_add_f32(plane_offset + y_low * params.width + x_low, hy * hx * grad);
    atomic_add_f32(plane_offset + y_low * params.width + x_high, hy * lx * grad);
    atomic_add_f32(plane_offset + y_high * params.width + x_low, ly * hx * grad);
    atomic_add_f32(plane_offset + y_high * params.width + x_high, ly * lx * grad);
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.total) {
        return;
    }

    // idx = ((r * channels + c) * pooled_h + ph) * pooled_w + pw
    let pw = idx % params.pooled_w;
    let ph = (idx / params.pooled_w) % params.pooled_h;
    let c = (idx / (params.pooled_w * params.pooled_h)) % params.channels;
    let r = idx / (params.pooled_w * params.pooled_h * params.channels);

    let roi_offset = r * 5u;
    let batch = u32(rois[roi_offset]);
    let start_w = rois[roi_offset + 1u] * params.scale_w;
    let start_h = rois[roi_offset + 2u] * params.scale_h;
    let end_w = rois[roi_offset + 3u] * params.scale_w;
    let end_h = rois[roi_offset + 4u] * params.scale_h;

    let roi_w = max(end_w - start_w, 1.0);
    let roi_h = max(end_h - start_h, 1.0);
    let bin_h = roi_h / f32(params.pooled_h);
    let bin_w = roi_w / f32(params.pooled_w);

    var grid_h: u32;
    var grid_w: u32;
    if (params.sampling_ratio > 0) {
        grid_h = u32(params.sampling_ratio);
        grid_w = u32(params.sampling_ratio);
    } else {
        grid_h = max(u32(ceil(bin_h)), 1u);
        grid_w = max(u32(ceil(bin_w)), 1u);
    }

    let plane_offset = (batch * params.channels + c) * params.height * params.width;

    // Each of the grid_h * grid_w samples carries an equal share of the
    // bin's incoming gradient, matching the forward average.
    let grad_bin = grad_output[idx] / f32(grid_h * grid_w);

    for (var iy = 0u; iy < grid_h; iy = iy + 1u) {
        let y = start_h + f32(ph) * bin_h + (f32(iy) + 0.5) * bin_h / f32(grid_h);
        for (var ix = 0u; ix < grid_w; ix = ix + 1u) {
            let x = start_w + f32(pw) * bin_w + (f32(ix) + 0.5) * bin_w / f32(grid_w);
            bilinear_scatter(plane_offset, y, x, grad_bin);
        }
    }
}
`
